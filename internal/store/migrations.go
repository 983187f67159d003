package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Decisions table - one row each time the stabilized sign changes
		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			label_index INTEGER NOT NULL,
			confidence REAL NOT NULL,
			hands INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,

		// Transcripts table - final speech recognition results
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_session_id ON transcripts(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
