package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/voxel"
)

func TestFitLine_Vertical(t *testing.T) {
	points := [][3]float64{{1, 2, 0}, {1, 2, 1}, {1, 2, 2}, {1, 2, 3}}
	line, err := FitLine(points)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, line.Origin[2], 1e-9)
	assert.InDelta(t, 0, line.Direction[0], 1e-9)
	assert.InDelta(t, 0, line.Direction[1], 1e-9)
	assert.InDelta(t, 1, line.Direction[2], 1e-9, "direction is oriented upward")

	at, ok := line.At(10)
	require.True(t, ok)
	assert.InDelta(t, 1, at[0], 1e-9)
	assert.InDelta(t, 2, at[1], 1e-9)
}

func TestFitLine_Diagonal(t *testing.T) {
	var points [][3]float64
	for i := 0; i < 10; i++ {
		f := float64(i)
		points = append(points, [3]float64{f, 0, -f})
	}
	line, err := FitLine(points)
	require.NoError(t, err)
	assert.InDelta(t, -1/math.Sqrt2, line.Direction[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, line.Direction[2], 1e-9)
	assert.InDelta(t, 45, TiltDegrees(line.Direction), 1e-6)
}

func TestFitLine_Degenerate(t *testing.T) {
	_, err := FitLine([][3]float64{{0, 0, 0}})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = FitLine([][3]float64{{1, 1, 1}, {1, 1, 1}})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestLine_AtHorizontal(t *testing.T) {
	_, ok := Line{Direction: [3]float64{1, 0, 0}}.At(3)
	assert.False(t, ok)
}

func TestPlaneThrough(t *testing.T) {
	pl := PlaneThrough([3]float64{0, 0, 5}, [3]float64{0, 0, 2})
	assert.InDelta(t, 0, pl.Distance([3]float64{7, -3, 5}), 1e-9)
	assert.InDelta(t, 2, pl.Distance([3]float64{0, 0, 3}), 1e-9)

	flat := PlaneThrough([3]float64{0, 0, 1}, [3]float64{})
	assert.Equal(t, [3]float64{0, 0, 1}, flat.Normal)
}

func TestClosestNodesOnPlanes(t *testing.T) {
	// A vertical 3x3 prism, and a detached blob beside it at the same heights.
	voxels := make(voxel.Set)
	for z := int64(0); z < 10; z++ {
		for x := int64(-1); x <= 1; x++ {
			for y := int64(-1); y <= 1; y++ {
				voxels.Add(voxel.Position{X: x, Y: y, Z: z})
			}
		}
		voxels.Add(voxel.Position{X: 6, Y: 0, Z: z})
	}
	polyline := voxel.Polyline{{Z: 2}, {Z: 3}, {Z: 4}}

	nodes, planes := ClosestNodesOnPlanes(voxels, polyline, 0.5, true)
	require.Len(t, nodes, 3)
	require.Len(t, planes, 3)
	assert.Equal(t, 10, nodes[1].Len(), "one 3x3 layer plus the blob voxel")
	for p := range nodes[1] {
		assert.Equal(t, int64(3), p.Z)
	}

	connected, _ := ClosestNodesOnPlanes(voxels, polyline, 0.5, false)
	assert.Equal(t, 9, connected[1].Len(), "blob voxel is not connected to the path")
	assert.False(t, connected[1].Has(voxel.Position{X: 6, Z: 3}))

	empty, _ := ClosestNodesOnPlanes(voxels, nil, 1, true)
	assert.Nil(t, empty)
}
