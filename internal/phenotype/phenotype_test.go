package phenotype

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/config"
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/segmentation"
	"github.com/banshee-data/phenomenal/internal/testutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

func segmentPlant(t *testing.T, plant *testutil.Plant) *organ.Segmentation {
	t.Helper()
	monitoring.SetLogger(nil)
	seg, err := segmentation.NewSegmenter(segmentation.DefaultParams()).
		Segment(context.Background(), plant.Skeleton(), plant.Graph(t))
	require.NoError(t, err)
	return seg
}

func TestMeasure_Plant(t *testing.T) {
	plant := testutil.NewPlant(10, 50).
		AddLeaf(25, 20, testutil.PlusX).
		AddLeaf(46, 12, testutil.PlusY).
		AddLeaf(15, 10, testutil.MinusX)
	seg := segmentPlant(t, plant)

	pf := Measure(seg, config.DefaultTuningConfig().GetClosestNodesDistance())
	assert.Equal(t, 3, pf.LeafCount)
	assert.Equal(t, 1, pf.CornetLeafCount)
	assert.Equal(t, 2, pf.MatureLeafCount)
	assert.InDelta(t, 490.0, pf.StemHeight, 1e-9)

	// Real paths run from the column edge to one before the tip.
	assert.InDelta(t, 180.0+100.0+80.0, pf.TotalLeafLength, 1e-9)
	assert.InDelta(t, 180.0, pf.MaxLeafLength, 1e-9)
	assert.InDelta(t, 120.0, pf.MeanLeafLength, 1e-9)
	require.Len(t, pf.Organs, len(seg.Organs))

	var long OrganFeatures
	for _, f := range pf.Organs {
		if f.Label == organ.LabelMatureLeaf && f.Length > long.Length {
			long = f
		}
	}
	assert.Equal(t, 19*3, long.VoxelCount)
	assert.InDelta(t, 19*3*1000.0, long.Volume, 1e-6)
	assert.InDelta(t, 250.0, long.InsertionHeight, 1e-9)
	assert.InDelta(t, 250.0, long.Height, 1e-9)
	assert.InDelta(t, 0.0, long.Azimuth, 1e-9)
	assert.InDelta(t, 30.0, long.Width, 1e-9, "blades are three voxels wide")

	leaf := seg.Organs[long.Index]
	assert.InDelta(t, 180.0, leaf.Info[InfoLength], 1e-9)
	assert.InDelta(t, 30.0, leaf.Info[InfoWidth], 1e-9)
	assert.Contains(t, seg.Stem().Info, InfoHeight)
	assert.NotContains(t, seg.Stem().Info, InfoWidth)
}

func TestMeasure_Azimuths(t *testing.T) {
	plant := testutil.NewPlant(10, 50).
		AddLeaf(20, 10, testutil.PlusY).
		AddLeaf(30, 10, testutil.MinusX).
		AddLeaf(40, 10, testutil.MinusY)
	pf := Measure(segmentPlant(t, plant), 4)

	var got []float64
	for _, f := range pf.Organs {
		if f.Label.IsLeaf() {
			got = append(got, f.Azimuth)
		}
	}
	sort.Float64s(got)
	require.Len(t, got, 3)
	for i, want := range []float64{90, 180, 270} {
		assert.InDelta(t, want, got[i], 1e-9)
	}
}

func TestMeasure_Empty(t *testing.T) {
	seg := organ.NewSegmentation(1, 1)
	u := organ.New(organ.LabelUnknown)
	u.AddSegment(voxel.NewSet(voxel.Position{}), voxel.Polyline{})
	seg.Organs = append(seg.Organs, u, &organ.Organ{Label: organ.LabelStem})

	pf := Measure(seg, 4)
	assert.Zero(t, pf.LeafCount)
	assert.Zero(t, pf.MeanLeafLength)
	assert.Zero(t, pf.StemHeight)
	assert.Equal(t, 1.0, u.Info[InfoVoxelCount])
	assert.NotNil(t, seg.Organs[1].Info)
}
