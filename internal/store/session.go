package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PlaySession is one run of a game.
type PlaySession struct {
	ID        string     `json:"id"`
	Game      string     `json:"game"`
	Detail    string     `json:"detail,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	NotesSent int        `json:"notes_sent"`
}

// SessionRepository records play sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start records a new session for game and returns it. detail names what was
// played, such as a MIDI file.
func (r *SessionRepository) Start(game, detail string) (*PlaySession, error) {
	ps := &PlaySession{
		ID:        uuid.New().String(),
		Game:      game,
		Detail:    detail,
		StartedAt: time.Now(),
	}
	_, err := r.db.Exec(
		`INSERT INTO play_sessions (id, game, detail, started_at) VALUES (?, ?, ?, ?)`,
		ps.ID, ps.Game, ps.Detail, ps.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return ps, nil
}

// Finish marks the session ended with the number of notes it sent.
func (r *SessionRepository) Finish(id string, notesSent int) error {
	result, err := r.db.Exec(
		`UPDATE play_sessions SET ended_at = ?, notes_sent = ? WHERE id = ?`,
		time.Now(), notesSent, id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(id string) (*PlaySession, error) {
	row := r.db.QueryRow(
		`SELECT id, game, detail, started_at, ended_at, notes_sent
		 FROM play_sessions WHERE id = ?`, id)
	ps, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ps, err
}

// Recent returns up to limit sessions, newest first.
func (r *SessionRepository) Recent(limit int) ([]*PlaySession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, game, detail, started_at, ended_at, notes_sent
		 FROM play_sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PlaySession
	for rows.Next() {
		ps, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*PlaySession, error) {
	ps := &PlaySession{}
	var ended sql.NullTime
	if err := s.Scan(&ps.ID, &ps.Game, &ps.Detail, &ps.StartedAt, &ended, &ps.NotesSent); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		ps.EndedAt = &t
	}
	return ps, nil
}
