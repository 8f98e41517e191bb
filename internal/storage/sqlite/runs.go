package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/phenotype"
)

// Run is one persisted segmentation of a skeleton.
type Run struct {
	RunID           string          `json:"run_id"`
	Source          string          `json:"source"`
	VoxelSize       float64         `json:"voxel_size"`
	BallRadius      float64         `json:"ball_radius"`
	OrganCount      int             `json:"organ_count"`
	LeafCount       int             `json:"leaf_count"`
	MatureLeafCount int             `json:"mature_leaf_count"`
	CornetLeafCount int             `json:"cornet_leaf_count"`
	StemHeight      float64         `json:"stem_height"`
	TotalLeafLength float64         `json:"total_leaf_length"`
	ParamsJSON      json.RawMessage `json:"params_json,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

// OrganRecord is the stored measurement row for one organ of a run.
type OrganRecord struct {
	OrganID         string      `json:"organ_id"`
	RunID           string      `json:"run_id"`
	Index           int         `json:"organ_index"`
	Label           organ.Label `json:"label"`
	SegmentCount    int         `json:"segment_count"`
	VoxelCount      int         `json:"voxel_count"`
	Volume          float64     `json:"volume"`
	Length          float64     `json:"length"`
	Height          float64     `json:"height"`
	InsertionHeight float64     `json:"insertion_height"`
	Azimuth         float64     `json:"azimuth"`
	Width           float64     `json:"width"`
}

// NewRun builds a run and its organ rows from a segmentation and its
// measured features. params is stored verbatim as JSON when non-nil.
func NewRun(source string, seg *organ.Segmentation, pf phenotype.PlantFeatures, params interface{}) (*Run, []*OrganRecord, error) {
	run := &Run{
		RunID:           uuid.New().String(),
		Source:          source,
		VoxelSize:       seg.VoxelSize,
		BallRadius:      seg.BallRadius,
		OrganCount:      len(seg.Organs),
		LeafCount:       pf.LeafCount,
		MatureLeafCount: pf.MatureLeafCount,
		CornetLeafCount: pf.CornetLeafCount,
		StemHeight:      pf.StemHeight,
		TotalLeafLength: pf.TotalLeafLength,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode params: %w", err)
		}
		run.ParamsJSON = raw
	}

	organs := make([]*OrganRecord, 0, len(pf.Organs))
	for _, f := range pf.Organs {
		segments := 0
		if f.Index >= 0 && f.Index < len(seg.Organs) {
			segments = len(seg.Organs[f.Index].Segments)
		}
		organs = append(organs, &OrganRecord{
			OrganID:         uuid.New().String(),
			RunID:           run.RunID,
			Index:           f.Index,
			Label:           f.Label,
			SegmentCount:    segments,
			VoxelCount:      f.VoxelCount,
			Volume:          f.Volume,
			Length:          f.Length,
			Height:          f.Height,
			InsertionHeight: f.InsertionHeight,
			Azimuth:         f.Azimuth,
			Width:           f.Width,
		})
	}
	return run, organs, nil
}

// InsertRun persists a run and its organs in one transaction. Empty IDs
// are filled with UUIDs and a zero CreatedAt with the current time.
func (s *Store) InsertRun(ctx context.Context, run *Run, organs []*OrganRecord) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return s.retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO segmentation_runs (
				run_id, source, voxel_size, ball_radius,
				organ_count, leaf_count, mature_leaf_count, cornet_leaf_count,
				stem_height, total_leaf_length, params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Source, run.VoxelSize, run.BallRadius,
			run.OrganCount, run.LeafCount, run.MatureLeafCount, run.CornetLeafCount,
			run.StemHeight, run.TotalLeafLength, paramsStr, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO segmentation_organs (
				organ_id, run_id, organ_index, label, segment_count, voxel_count,
				volume, length, height, insertion_height, azimuth, width
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare organ insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range organs {
			if o.OrganID == "" {
				o.OrganID = uuid.New().String()
			}
			o.RunID = run.RunID
			if _, err := stmt.ExecContext(ctx,
				o.OrganID, o.RunID, o.Index, string(o.Label), o.SegmentCount, o.VoxelCount,
				o.Volume, o.Length, o.Height, o.InsertionHeight, o.Azimuth, o.Width,
			); err != nil {
				return fmt.Errorf("insert organ %d: %w", o.Index, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, source, voxel_size, ball_radius,
	organ_count, leaf_count, mature_leaf_count, cornet_leaf_count,
	stem_height, total_leaf_length, params_json, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var paramsStr sql.NullString
	var stemHeight, totalLength sql.NullFloat64
	if err := row.Scan(
		&r.RunID, &r.Source, &r.VoxelSize, &r.BallRadius,
		&r.OrganCount, &r.LeafCount, &r.MatureLeafCount, &r.CornetLeafCount,
		&stemHeight, &totalLength, &paramsStr, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.StemHeight = stemHeight.Float64
	r.TotalLeafLength = totalLength.Float64
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM segmentation_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs for a source, newest first. An empty source lists
// every run.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + runColumns + ` FROM segmentation_runs`
	args := []interface{}{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListOrgans returns the organ rows of a run in emission order.
func (s *Store) ListOrgans(ctx context.Context, runID string) ([]*OrganRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT organ_id, run_id, organ_index, label, segment_count, voxel_count,
		       volume, length, height, insertion_height, azimuth, width
		FROM segmentation_organs
		WHERE run_id = ?
		ORDER BY organ_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query organs: %w", err)
	}
	defer rows.Close()

	var out []*OrganRecord
	for rows.Next() {
		var o OrganRecord
		var label string
		if err := rows.Scan(
			&o.OrganID, &o.RunID, &o.Index, &label, &o.SegmentCount, &o.VoxelCount,
			&o.Volume, &o.Length, &o.Height, &o.InsertionHeight, &o.Azimuth, &o.Width,
		); err != nil {
			return nil, fmt.Errorf("scan organ: %w", err)
		}
		o.Label = organ.Label(label)
		out = append(out, &o)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; its organs go with it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	return s.retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM segmentation_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil
	})
}
