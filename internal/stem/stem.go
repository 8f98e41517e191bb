// Package stem detects the main upright axis of a plant inside its tallest
// skeleton segment.
//
// Key types: Result, VerticalDetector.
package stem

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/phenomenal/internal/geometry"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// ErrNotFound is returned when no plausible vertical stem exists in the
// segment handed to the detector.
var ErrNotFound = errors.New("stem not found")

// Result is the voxel ownership split produced by a stem detector.
//
// StemVoxels is a subset of the segment voxels and never contains the
// segment tip. NotStemVoxels is every graph node outside StemVoxels.
// StemTop is the part of StemVoxels close to the top of the stem.
type Result struct {
	StemVoxels    voxel.Set
	NotStemVoxels voxel.Set
	StemPath      voxel.Polyline
	StemTop       voxel.Set
}

// VerticalDetector finds the stem as the near-vertical prefix of a
// base-to-tip path and claims the segment voxels around its fitted axis.
type VerticalDetector struct {
	// MaxTiltDegrees bounds the angle between +Z and the vector from the
	// path base to any point of the stem path.
	MaxTiltDegrees float64

	// RadiusVoxels is the horizontal distance from the stem axis, in
	// voxels, within which segment voxels belong to the stem.
	RadiusVoxels float64

	// TopFraction of the stem height, measured down from the stem top,
	// forms the stem top region. At least one voxel layer is always kept.
	TopFraction float64
}

// NewVerticalDetector constructs a detector with explicit parameters.
func NewVerticalDetector(maxTiltDegrees, radiusVoxels, topFraction float64) *VerticalDetector {
	return &VerticalDetector{
		MaxTiltDegrees: maxTiltDegrees,
		RadiusVoxels:   radiusVoxels,
		TopFraction:    topFraction,
	}
}

// DefaultVerticalDetector returns a detector tuned for upright maize:
// 30 degree tilt, 4 voxel radius, top 10% of the stem.
func DefaultVerticalDetector() *VerticalDetector {
	return NewVerticalDetector(30, 4, 0.1)
}

// Detect splits voxels into stem and non-stem parts.
//
// path runs from base to tip. The stem path is the longest strictly rising
// prefix whose points all stay within MaxTiltDegrees of vertical as seen
// from the base, never including the tip. A principal-axis line fitted to
// that prefix is the stem axis.
func (d *VerticalDetector) Detect(voxels voxel.Set, path voxel.Polyline, voxelSize float64, g *voxel.Graph) (Result, error) {
	if len(path) < 2 {
		return Result{}, fmt.Errorf("%w: path has %d points", ErrNotFound, len(path))
	}
	if voxelSize <= 0 {
		return Result{}, fmt.Errorf("voxel size must be positive, got %g", voxelSize)
	}

	stemPath := d.verticalPrefix(path)
	if len(stemPath) < 2 {
		return Result{}, fmt.Errorf("%w: no vertical prefix above the base", ErrNotFound)
	}

	axis, err := geometry.FitLine(geometry.ToWorld(stemPath, voxelSize))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	baseZ := stemPath[0].Z
	topZ, _ := stemPath.MaxZ()
	radius := d.RadiusVoxels * voxelSize
	tip := path[len(path)-1]

	stemVoxels := make(voxel.Set)
	for p := range voxels {
		if p.Z < baseZ || p.Z > topZ || p == tip {
			continue
		}
		x, y, z := p.World(voxelSize)
		onAxis, ok := axis.At(z)
		if !ok {
			continue
		}
		if geometry.HorizontalDistance([3]float64{x, y, z}, onAxis) <= radius {
			stemVoxels.Add(p)
		}
	}
	if stemVoxels.Len() == 0 {
		return Result{}, fmt.Errorf("%w: no voxels around the stem axis", ErrNotFound)
	}

	notStem := g.Nodes()
	notStem.Remove(stemVoxels)

	return Result{
		StemVoxels:    stemVoxels,
		NotStemVoxels: notStem,
		StemPath:      stemPath,
		StemTop:       d.top(stemVoxels, baseZ, topZ),
	}, nil
}

// verticalPrefix returns path[:k] for the largest k such that every step
// rises and every point stays within the tilt bound as seen from the base.
// The tip is excluded.
func (d *VerticalDetector) verticalPrefix(path voxel.Polyline) voxel.Polyline {
	base := path[0]
	end := 1
	for i := 1; i < len(path)-1; i++ {
		if path[i].Z <= path[i-1].Z {
			break
		}
		v := path[i].Sub(base)
		if geometry.TiltDegrees([3]float64{float64(v.X), float64(v.Y), float64(v.Z)}) > d.MaxTiltDegrees {
			break
		}
		end = i + 1
	}
	return path[:end].Clone()
}

func (d *VerticalDetector) top(stemVoxels voxel.Set, baseZ, topZ int64) voxel.Set {
	band := math.Max(1, d.TopFraction*float64(topZ-baseZ))
	floor := float64(topZ) - band
	out := make(voxel.Set)
	for p := range stemVoxels {
		if float64(p.Z) >= floor {
			out.Add(p)
		}
	}
	return out
}
