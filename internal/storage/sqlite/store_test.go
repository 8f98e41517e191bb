package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/phenotype"
	"github.com/banshee-data/phenomenal/internal/timeutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	monitoring.SetLogger(nil)
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSegmentation() (*organ.Segmentation, phenotype.PlantFeatures) {
	seg := organ.NewSegmentation(2, 3)
	unknown := organ.New(organ.LabelUnknown)
	unknown.AddSegment(voxel.NewSet(voxel.Position{X: 9}), nil)
	stem := organ.New(organ.LabelStem)
	stem.AddSegment(voxel.NewSet(voxel.Position{Z: 1}, voxel.Position{Z: 2}),
		voxel.Polyline{{Z: 1}, {Z: 2}})
	leaf := organ.New(organ.LabelMatureLeaf)
	leaf.AddSegment(voxel.NewSet(voxel.Position{X: 1, Z: 2}), voxel.Polyline{{X: 1, Z: 2}})
	leaf.AddSegment(voxel.NewSet(voxel.Position{X: 2, Z: 2}), voxel.Polyline{{X: 2, Z: 2}})
	seg.Organs = []*organ.Organ{unknown, stem, leaf}

	pf := phenotype.PlantFeatures{
		LeafCount:       1,
		MatureLeafCount: 1,
		StemHeight:      4,
		TotalLeafLength: 12.5,
		Organs: []phenotype.OrganFeatures{
			{Index: 0, Label: organ.LabelUnknown, VoxelCount: 1, Volume: 8},
			{Index: 1, Label: organ.LabelStem, VoxelCount: 2, Volume: 16, Length: 2, Height: 4},
			{Index: 2, Label: organ.LabelMatureLeaf, VoxelCount: 2, Volume: 16, Length: 12.5,
				Height: 4, InsertionHeight: 4, Azimuth: 90, Width: 6},
		},
	}
	return seg, pf
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := setupTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(LatestSchemaVersion), version)

	// Reopening an up-to-date database is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestMigrateDown(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.MigrateDown())
	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(LatestSchemaVersion-1), version)

	_, err = s.LoadSegmentation(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound), "blob column is gone after rolling back")

	require.NoError(t, s.MigrateUp())
}

func TestInsertAndGetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seg, pf := sampleSegmentation()

	run, organs, err := NewRun("plant-7.json", seg, pf, map[string]float64{"noise_length": 30})
	require.NoError(t, err)
	require.Len(t, organs, 3)
	assert.Equal(t, 2, organs[2].SegmentCount)

	require.NoError(t, s.InsertRun(ctx, run, organs))
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}

	var params map[string]float64
	require.NoError(t, json.Unmarshal(got.ParamsJSON, &params))
	assert.Equal(t, 30.0, params["noise_length"])

	stored, err := s.ListOrgans(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(organs, stored); diff != "" {
		t.Errorf("stored organs mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestListRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seg, pf := sampleSegmentation()

	for i, source := range []string{"a.json", "b.json", "a.json"} {
		run, organs, err := NewRun(source, seg, pf, nil)
		require.NoError(t, err)
		run.CreatedAt = int64(1000 + i)
		require.NoError(t, s.InsertRun(ctx, run, organs))
	}

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1002), all[0].CreatedAt, "newest first")
	assert.Nil(t, all[0].ParamsJSON)

	onlyA, err := s.ListRuns(ctx, "a.json", 10)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	for _, r := range onlyA {
		assert.Equal(t, "a.json", r.Source)
	}

	limited, err := s.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteRun_Cascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seg, pf := sampleSegmentation()

	run, organs, err := NewRun("a.json", seg, pf, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertRun(ctx, run, organs))

	require.NoError(t, s.DeleteRun(ctx, run.RunID))
	stored, err := s.ListOrgans(ctx, run.RunID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.True(t, errors.Is(s.DeleteRun(ctx, run.RunID), ErrNotFound))
}

func TestInsertRun_DuplicateOrganIndexRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := &Run{Source: "dup.json", VoxelSize: 1}
	organs := []*OrganRecord{
		{Index: 0, Label: organ.LabelStem},
		{Index: 0, Label: organ.LabelMatureLeaf},
	}
	require.Error(t, s.InsertRun(ctx, run, organs))

	_, err := s.GetRun(ctx, run.RunID)
	assert.True(t, errors.Is(err, ErrNotFound), "run row must roll back with its organs")
}

func TestInsertRun_UsesClock(t *testing.T) {
	monitoring.SetLogger(nil)
	clock := timeutil.NewMockClock(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC))
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), WithClock(clock))
	require.NoError(t, err)
	defer s.Close()

	seg, pf := sampleSegmentation()
	run, organs, err := NewRun("a.json", seg, pf, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertRun(context.Background(), run, organs))
	assert.Equal(t, clock.Now().UnixNano(), run.CreatedAt)
}

func TestRetryOnBusy(t *testing.T) {
	assert.True(t, isBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isBusy(errors.New("no such table")))

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	s := &Store{clock: clock}

	calls := 0
	err := s.retryOnBusy(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}, clock.Sleeps())

	permanent := errors.New("no such table")
	assert.Equal(t, permanent, s.retryOnBusy(func() error { return permanent }))
}
