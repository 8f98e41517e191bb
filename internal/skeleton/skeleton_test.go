package skeleton

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

func path(zs ...int64) voxel.Polyline {
	out := make(voxel.Polyline, len(zs))
	for i, z := range zs {
		out[i] = voxel.Position{Z: z}
	}
	return out
}

func TestTrimPolyline(t *testing.T) {
	pl := path(0, 1, 2, 3, 4, 5)

	tests := []struct {
		name  string
		owned voxel.Set
		want  voxel.Polyline
	}{
		{
			name:  "stem prefix removed, boundary kept, tip dropped",
			owned: path(3, 4, 5).Set(),
			want:  path(2, 3, 4),
		},
		{
			name:  "all owned keeps whole path minus tip",
			owned: pl.Set(),
			want:  path(0, 1, 2, 3, 4),
		},
		{
			name:  "tip not owned yields empty path",
			owned: path(0, 1, 2).Set(),
			want:  path(),
		},
		{
			name:  "nothing owned yields empty path",
			owned: nil,
			want:  path(),
		},
		{
			name:  "gap near tip moves boundary up",
			owned: path(0, 1, 2, 4, 5).Set(),
			want:  path(3, 4),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimPolyline(pl, tc.owned)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Empty(t, TrimPolyline(nil, nil))
	assert.Empty(t, TrimPolyline(path(7), path(7).Set()))
}

func TestTrimPolyline_IsContiguousWindow(t *testing.T) {
	pl := path(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	for cut := int64(0); cut < 10; cut++ {
		owned := make(voxel.Set)
		for z := cut; z < 10; z++ {
			owned.Add(voxel.Position{Z: z})
		}
		got := TrimPolyline(pl, owned)
		require.LessOrEqual(t, len(got), len(pl))
		if len(got) == 0 {
			continue
		}
		start := int(got[0].Z)
		assert.Equal(t, []voxel.Position(pl[start:start+len(got)]), []voxel.Position(got))
		assert.Equal(t, int64(8), got[len(got)-1].Z, "real polyline ends one before the tip")
	}
}

func TestSegment_TrimSetsRealPolyline(t *testing.T) {
	s := NewSegment(path(0, 1, 2, 3).Set(), path(0, 1, 2, 3))
	s.LeafVoxels = path(2, 3).Set()
	got := s.Trim()
	assert.Equal(t, path(1, 2), got)
	assert.Equal(t, got, s.RealPolyline)
}

func TestSkeleton_HighestFirstEncounteredWinsTies(t *testing.T) {
	sk := &Skeleton{Segments: []*Segment{
		NewSegment(nil, nil),
		NewSegment(nil, path(0, 10, 40)),
		NewSegment(nil, path(0, 50)),
		NewSegment(nil, path(50, 3)),
	}}
	// Segments 2 and 3 both reach z=50; the earlier one is chosen.
	assert.Equal(t, 2, sk.Highest())

	assert.Equal(t, -1, (&Skeleton{}).Highest())
}

func TestSkeleton_CloneIsDeep(t *testing.T) {
	sk := &Skeleton{
		VoxelSize: 2,
		Segments:  []*Segment{NewSegment(path(0, 1).Set(), path(0, 1))},
	}
	c := sk.Clone()
	c.Segments[0].Voxels = c.Segments[0].LeafVoxels
	c.Segments[0].Polyline[0] = voxel.Position{X: 99}

	assert.Equal(t, 2, sk.Segments[0].Voxels.Len())
	assert.Equal(t, voxel.Position{}, sk.Segments[0].Polyline[0])
	assert.Equal(t, 2.0, c.VoxelSize)
}

func TestSkeleton_Voxels(t *testing.T) {
	sk := &Skeleton{Segments: []*Segment{
		NewSegment(path(0, 1, 2).Set(), nil),
		NewSegment(path(2, 3).Set(), nil),
	}}
	assert.Equal(t, 4, sk.Voxels().Len())
}

func TestDecode(t *testing.T) {
	doc := `{"voxel_size": 4, "ball_radius": 10,
		"segments": [{"voxels": [[0,0,0],[0,0,1]], "polyline": [[0,0,0],[0,0,1]],
		              "leaf_voxels": [[0,0,1]]}]}`

	sk, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 4.0, sk.VoxelSize)
	assert.Equal(t, 10.0, sk.BallRadius)
	require.Len(t, sk.Segments, 1)
	assert.Equal(t, 2, sk.Segments[0].Voxels.Len())
	assert.Nil(t, sk.Segments[0].LeafVoxels, "computed fields are not trusted on input")

	_, err = Decode(strings.NewReader(`{"voxel_size": 0, "segments": []}`))
	assert.ErrorContains(t, err, "voxel_size")

	_, err = Decode(strings.NewReader(`{"voxel_size": 1, "segments": [null]}`))
	assert.ErrorContains(t, err, "segment 0")

	_, err = Decode(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("plants/p1.json", []byte(`{"voxel_size": 1, "segments": [{"polyline": [[0,0,0]]}]}`))

	sk, err := Load(mfs, "plants/p1.json")
	require.NoError(t, err)
	require.Len(t, sk.Segments, 1)
	assert.NotNil(t, sk.Segments[0].Voxels)

	_, err = Load(mfs, "plants/p1.yaml")
	assert.ErrorContains(t, err, ".json")

	_, err = Load(mfs, "plants/missing.json")
	assert.Error(t, err)
}
