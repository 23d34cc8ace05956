package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - named detector tunings applied when a session starts
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			exercise TEXT NOT NULL CHECK(exercise IN ('squat', 'slr', 'elbow_flexion')),
			side TEXT NOT NULL CHECK(side IN ('left', 'right')),
			down_threshold REAL NOT NULL,
			bottom_threshold REAL NOT NULL,
			up_threshold REAL NOT NULL,
			hysteresis REAL NOT NULL,
			rom_target REAL NOT NULL,
			alpha REAL NOT NULL DEFAULT 0.3,
			min_rep_duration_ms INTEGER NOT NULL DEFAULT 300,
			min_visibility REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_exercise ON profiles(exercise)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
