package store

import (
	"database/sql"
	"errors"
	"image"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run represents one comparison run.
type Run struct {
	ID          string
	VideoPath   string
	Methods     []string
	ROI         image.Rectangle
	TotalFrames int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// MethodResult is one method's summary within a run.
type MethodResult struct {
	Method         string
	FramesSurvived int
	MeanScore      *float64
	MeanIoU        *float64
}

// FrameResult is one method's estimate for a single frame.
type FrameResult struct {
	FrameIndex int
	Method     string
	Box        image.Rectangle
	Score      *float64
	Lost       bool
}

// RunRepository provides persistence for runs and their results.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create inserts a new run.
func (r *RunRepository) Create(run *Run) error {
	run.StartedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO runs (id, video_path, methods, roi_x, roi_y, roi_w, roi_h, total_frames, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.VideoPath, strings.Join(run.Methods, ","),
		run.ROI.Min.X, run.ROI.Min.Y, run.ROI.Dx(), run.ROI.Dy(),
		run.TotalFrames, run.StartedAt,
	)
	return err
}

// Finish records the frame count and completion time of a run.
func (r *RunRepository) Finish(id string, totalFrames int) error {
	now := time.Now()
	res, err := r.db.Exec(
		`UPDATE runs SET total_frames = ?, finished_at = ? WHERE id = ?`,
		totalFrames, now, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	var methods string
	var x, y, w, h int
	var finished sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, video_path, methods, roi_x, roi_y, roi_w, roi_h, total_frames, started_at, finished_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.VideoPath, &methods, &x, &y, &w, &h, &run.TotalFrames, &run.StartedAt, &finished)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	run.Methods = strings.Split(methods, ",")
	run.ROI = image.Rect(x, y, x+w, y+h)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(
		`SELECT id, video_path, methods, roi_x, roi_y, roi_w, roi_h, total_frames, started_at, finished_at
		 FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var methods string
		var x, y, w, h int
		var finished sql.NullTime

		if err := rows.Scan(&run.ID, &run.VideoPath, &methods, &x, &y, &w, &h,
			&run.TotalFrames, &run.StartedAt, &finished); err != nil {
			return nil, err
		}

		run.Methods = strings.Split(methods, ",")
		run.ROI = image.Rect(x, y, x+w, y+h)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveMethodResult upserts one method's summary for a run.
func (r *RunRepository) SaveMethodResult(runID string, result *MethodResult) error {
	var score, iou sql.NullFloat64
	if result.MeanScore != nil {
		score = sql.NullFloat64{Float64: *result.MeanScore, Valid: true}
	}
	if result.MeanIoU != nil {
		iou = sql.NullFloat64{Float64: *result.MeanIoU, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO run_results (run_id, method, frames_survived, mean_score, mean_iou)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, method) DO UPDATE SET
			frames_survived = excluded.frames_survived,
			mean_score = excluded.mean_score,
			mean_iou = excluded.mean_iou`,
		runID, result.Method, result.FramesSurvived, score, iou,
	)
	return err
}

// MethodResults retrieves every method summary for a run.
func (r *RunRepository) MethodResults(runID string) ([]*MethodResult, error) {
	rows, err := r.db.Query(
		`SELECT method, frames_survived, mean_score, mean_iou
		 FROM run_results WHERE run_id = ? ORDER BY method`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*MethodResult
	for rows.Next() {
		mr := &MethodResult{}
		var score, iou sql.NullFloat64

		if err := rows.Scan(&mr.Method, &mr.FramesSurvived, &score, &iou); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			mr.MeanScore = &v
		}
		if iou.Valid {
			v := iou.Float64
			mr.MeanIoU = &v
		}
		results = append(results, mr)
	}

	return results, rows.Err()
}

// SaveFrameResult appends one method's per-frame estimate.
func (r *RunRepository) SaveFrameResult(runID string, fr *FrameResult) error {
	var score sql.NullFloat64
	if fr.Score != nil {
		score = sql.NullFloat64{Float64: *fr.Score, Valid: true}
	}

	lost := 0
	if fr.Lost {
		lost = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO frame_results (run_id, frame_index, method, x, y, w, h, score, lost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, fr.FrameIndex, fr.Method,
		fr.Box.Min.X, fr.Box.Min.Y, fr.Box.Dx(), fr.Box.Dy(), score, lost,
	)
	return err
}

// FrameResults retrieves the per-frame estimates of a run in frame order.
func (r *RunRepository) FrameResults(runID string) ([]*FrameResult, error) {
	rows, err := r.db.Query(
		`SELECT frame_index, method, x, y, w, h, score, lost
		 FROM frame_results WHERE run_id = ? ORDER BY frame_index, method`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*FrameResult
	for rows.Next() {
		fr := &FrameResult{}
		var x, y, w, h, lost int
		var score sql.NullFloat64

		if err := rows.Scan(&fr.FrameIndex, &fr.Method, &x, &y, &w, &h, &score, &lost); err != nil {
			return nil, err
		}
		fr.Box = image.Rect(x, y, x+w, y+h)
		if score.Valid {
			v := score.Float64
			fr.Score = &v
		}
		fr.Lost = lost != 0
		results = append(results, fr)
	}

	return results, rows.Err()
}
