package store

import (
	"database/sql"
	"fmt"
)

// Piece is one recorded work.
type Piece struct {
	Title        string  `json:"title"`
	MIDIFilename string  `json:"midi_filename"`
	Duration     float64 `json:"duration"`
	Year         int     `json:"year"`
}

// Composer groups the pieces of one composer.
type Composer struct {
	Name       string  `json:"name"`
	Pieces     []Piece `json:"pieces"`
	PieceCount int     `json:"piece_count"`
}

// ComposerRepository stores the composer catalog.
type ComposerRepository struct {
	db *sql.DB
}

// Composers returns the composer repository for this store.
func (s *Store) Composers() *ComposerRepository {
	return &ComposerRepository{db: s.db}
}

// ReplaceAll swaps the whole catalog in one transaction.
func (r *ComposerRepository) ReplaceAll(composers []Composer) error {
	return inTx(r.db, func(tx *sql.Tx) error {
		for _, q := range []string{`DELETE FROM pieces`, `DELETE FROM composers`} {
			if _, err := tx.Exec(q); err != nil {
				return err
			}
		}
		for _, c := range composers {
			if _, err := tx.Exec(`INSERT INTO composers (name, piece_count) VALUES (?, ?)`, c.Name, len(c.Pieces)); err != nil {
				return fmt.Errorf("insert composer %q: %w", c.Name, err)
			}
			for _, p := range c.Pieces {
				_, err := tx.Exec(
					`INSERT INTO pieces (composer, title, midi_filename, duration, year) VALUES (?, ?, ?, ?, ?)`,
					c.Name, p.Title, p.MIDIFilename, p.Duration, p.Year,
				)
				if err != nil {
					return fmt.Errorf("insert piece %q: %w", p.Title, err)
				}
			}
		}
		return nil
	})
}

// List returns every composer with their pieces, sorted by name.
func (r *ComposerRepository) List() ([]Composer, error) {
	rows, err := r.db.Query(
		`SELECT c.name, p.title, p.midi_filename, p.duration, p.year
		 FROM composers c LEFT JOIN pieces p ON p.composer = c.name
		 ORDER BY c.name, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Composer
	for rows.Next() {
		var (
			name     string
			title    sql.NullString
			file     sql.NullString
			duration sql.NullFloat64
			year     sql.NullInt64
		)
		if err := rows.Scan(&name, &title, &file, &duration, &year); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Name != name {
			out = append(out, Composer{Name: name})
		}
		if title.Valid {
			c := &out[len(out)-1]
			c.Pieces = append(c.Pieces, Piece{
				Title:        title.String,
				MIDIFilename: file.String,
				Duration:     duration.Float64,
				Year:         int(year.Int64),
			})
			c.PieceCount = len(c.Pieces)
		}
	}
	return out, rows.Err()
}

// Count returns the number of composers.
func (r *ComposerRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM composers`).Scan(&n)
	return n, err
}
