package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/sprint.report/internal/sprint"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is a stored run. Result is populated from the stored columns;
// for failed runs only RunID and Source are meaningful.
type RunRecord struct {
	Result     sprint.Result `json:"result"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	TrackLengthM    float64   `json:"track_length_m"`
	DurationS       float64   `json:"duration_s"`
	AverageSpeedMPS float64   `json:"average_speed_mps"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// RecordRun stores a successful result and its trajectory in one
// transaction.
func (db *DB) RecordRun(res *sprint.Result) error {
	if res == nil || res.RunID == "" {
		return errors.New("result with a run id is required")
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sprint_runs (
			run_id, source, status, track_length_m, start_time_s, end_time_s,
			duration_s, average_speed_mps, fitted_speed_mps, left_marker_x,
			right_marker_x, frame_rate, frames_processed, subject_misses,
			roi_x, roi_width, roi_height, source_roi_x, source_roi_width,
			source_roi_height, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Source, sprint.Outcome(nil), res.TrackLengthM, res.StartTimeS, res.EndTimeS,
		res.DurationS, res.AverageSpeedMPS, res.FittedSpeedMPS, res.Markers.LeftX,
		res.Markers.RightX, res.FrameRate, res.FramesProcessed, res.SubjectMisses,
		res.ROI.X, res.ROI.Width, res.ROI.Height, res.SourceROI.X, res.SourceROI.Width,
		res.SourceROI.Height, db.clock.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO trajectory_samples (run_id, seq, frame_index, time_s, distance_m) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, s := range res.Trajectory {
		if _, err := stmt.Exec(res.RunID, i, s.FrameIndex, s.TimeS, s.DistanceM); err != nil {
			return fmt.Errorf("insert sample %d of run %s: %w", i, res.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logf("recorded run %s (%d samples)", res.RunID, len(res.Trajectory))
	return nil
}

// RecordFailedRun stores a run that produced no result.
func (db *DB) RecordFailedRun(runID, source, status string, runErr error) error {
	if runID == "" || status == "" {
		return errors.New("run id and status are required")
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := db.Exec(`INSERT INTO sprint_runs (run_id, source, status, error, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		runID, source, status, msg, db.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert failed run %s: %w", runID, err)
	}
	logf("recorded failed run %s (%s)", runID, status)
	return nil
}

// GetRun loads a run and its trajectory.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	var (
		rec RunRecord
		r   = &rec.Result
		ts  int64
	)
	err := db.QueryRow(`
		SELECT run_id, source, status, error, track_length_m, start_time_s,
			end_time_s, duration_s, average_speed_mps, fitted_speed_mps,
			left_marker_x, right_marker_x, frame_rate, frames_processed,
			subject_misses, roi_x, roi_width, roi_height, source_roi_x,
			source_roi_width, source_roi_height, recorded_at
		FROM sprint_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Source, &rec.Status, &rec.Error, &r.TrackLengthM, &r.StartTimeS,
		&r.EndTimeS, &r.DurationS, &r.AverageSpeedMPS, &r.FittedSpeedMPS,
		&r.Markers.LeftX, &r.Markers.RightX, &r.FrameRate, &r.FramesProcessed,
		&r.SubjectMisses, &r.ROI.X, &r.ROI.Width, &r.ROI.Height, &r.SourceROI.X,
		&r.SourceROI.Width, &r.SourceROI.Height, &ts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	rec.RecordedAt = time.Unix(0, ts).UTC()

	rows, err := db.Query(`SELECT frame_index, time_s, distance_m FROM trajectory_samples WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s sprint.Sample
		if err := rows.Scan(&s.FrameIndex, &s.TimeS, &s.DistanceM); err != nil {
			return nil, err
		}
		r.Trajectory = append(r.Trajectory, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.Splits = sprint.Splits(r.Trajectory, r.TrackLengthM)
	return &rec, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT run_id, source, status, error, track_length_m, duration_s,
			average_speed_mps, recorded_at
		FROM sprint_runs ORDER BY recorded_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts int64
		if err := rows.Scan(&s.RunID, &s.Source, &s.Status, &s.Error, &s.TrackLengthM, &s.DurationS, &s.AverageSpeedMPS, &ts); err != nil {
			return nil, err
		}
		s.RecordedAt = time.Unix(0, ts).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
