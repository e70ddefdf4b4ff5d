package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - JSON overrides of one game's config section, keyed by game
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Play sessions table - one row per game run
		`CREATE TABLE IF NOT EXISTS play_sessions (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			notes_sent INTEGER NOT NULL DEFAULT 0
		)`,

		// Composers table - catalog built from the MAESTRO metadata
		`CREATE TABLE IF NOT EXISTS composers (
			name TEXT PRIMARY KEY,
			piece_count INTEGER NOT NULL DEFAULT 0
		)`,

		// Pieces table - the works of each composer
		`CREATE TABLE IF NOT EXISTS pieces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			composer TEXT NOT NULL REFERENCES composers(name) ON DELETE CASCADE,
			title TEXT NOT NULL,
			midi_filename TEXT NOT NULL,
			duration REAL NOT NULL DEFAULT 0,
			year INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_play_sessions_started_at ON play_sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pieces_composer ON pieces(composer)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
