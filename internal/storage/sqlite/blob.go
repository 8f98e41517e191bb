package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/banshee-data/phenomenal/internal/organ"
)

// SaveSegmentation stores the full segmentation of a run as
// snappy-compressed JSON.
func (s *Store) SaveSegmentation(ctx context.Context, runID string, seg *organ.Segmentation) error {
	var buf bytes.Buffer
	if err := seg.WriteJSON(&buf); err != nil {
		return err
	}
	compressed := snappy.Encode(nil, buf.Bytes())

	return s.retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE segmentation_runs SET segmentation_snappy = ? WHERE run_id = ?`, compressed, runID)
		if err != nil {
			return fmt.Errorf("save segmentation: %w", err)
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

// LoadSegmentation returns the segmentation saved for a run. A run without
// a saved segmentation reports ErrNotFound.
func (s *Store) LoadSegmentation(ctx context.Context, runID string) (*organ.Segmentation, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT segmentation_snappy FROM segmentation_runs WHERE run_id = ?`, runID).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load segmentation: %w", err)
	}
	if compressed == nil {
		return nil, fmt.Errorf("%w: %s has no stored segmentation", ErrNotFound, runID)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress segmentation: %w", err)
	}
	return organ.ReadJSON(bytes.NewReader(data))
}
