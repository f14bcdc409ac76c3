package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per comparison run
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			video_path TEXT NOT NULL,
			methods TEXT NOT NULL,
			roi_x INTEGER NOT NULL,
			roi_y INTEGER NOT NULL,
			roi_w INTEGER NOT NULL,
			roi_h INTEGER NOT NULL,
			total_frames INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,

		// Run results table - per-method summary for a run
		`CREATE TABLE IF NOT EXISTS run_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			method TEXT NOT NULL,
			frames_survived INTEGER NOT NULL DEFAULT 0,
			mean_score REAL,
			mean_iou REAL,
			UNIQUE(run_id, method)
		)`,

		// Frame results table - optional per-frame boxes and scores
		`CREATE TABLE IF NOT EXISTS frame_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			method TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			w INTEGER NOT NULL,
			h INTEGER NOT NULL,
			score REAL,
			lost INTEGER NOT NULL DEFAULT 0
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_frame_results_run_id ON frame_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_frame_results_frame ON frame_results(run_id, frame_index)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
