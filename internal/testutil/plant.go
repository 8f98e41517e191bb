package testutil

import (
	"testing"

	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Direction is a horizontal unit step along one lattice axis.
type Direction struct{ DX, DY int64 }

var (
	PlusX  = Direction{DX: 1}
	MinusX = Direction{DX: -1}
	PlusY  = Direction{DY: 1}
	MinusY = Direction{DY: -1}
)

// Plant builds synthetic upright plants: a 3x3 stem column rising from the
// origin and flat 3-voxel-wide leaf blades leaving it horizontally.
//
// The first segment is always the stem column itself, traced from (0,0,0)
// to (0,0,Height). Every leaf segment traces the column up to its
// insertion height and then runs out along its blade, so leaf segments
// share their lower voxels with the stem exactly as real skeleton
// branches do.
type Plant struct {
	VoxelSize  float64
	BallRadius float64
	Height     int64

	segments []*skeleton.Segment
}

// NewPlant starts a plant whose stem column reaches height (lattice units).
func NewPlant(voxelSize float64, height int64) *Plant {
	p := &Plant{VoxelSize: voxelSize, BallRadius: 2 * voxelSize, Height: height}
	p.segments = append(p.segments, skeleton.NewSegment(column(height), columnPath(height)))
	return p
}

// AddLeaf adds a leaf inserted at height z running length voxels out in d.
func (p *Plant) AddLeaf(z, length int64, d Direction) *Plant {
	p.segments = append(p.segments, p.leafSegment(z, length, d))
	return p
}

// AddStray attaches a loose voxel to the stem segment's voxel set without
// touching any path. Strays exercise region annexation.
func (p *Plant) AddStray(pos voxel.Position) *Plant {
	p.segments[0].Voxels.Add(pos)
	return p
}

// AddVoxels merges extra voxels into segment i (0 is the stem column, leaves
// follow in the order they were added). Ball-based skeletonizers hand out
// overlapping branches like this.
func (p *Plant) AddVoxels(i int, voxels voxel.Set) *Plant {
	p.segments[i].Voxels.Merge(voxels)
	return p
}

// Skeleton returns a fresh skeleton; callers may mutate it freely.
func (p *Plant) Skeleton() *skeleton.Skeleton {
	sk := &skeleton.Skeleton{BallRadius: p.BallRadius, VoxelSize: p.VoxelSize}
	for _, s := range p.segments {
		sk.Segments = append(sk.Segments, s.Clone())
	}
	return sk
}

// Graph builds the 26-connected graph over every plant voxel.
func (p *Plant) Graph(t testing.TB) *voxel.Graph {
	t.Helper()
	g, err := voxel.BuildGraph(p.Skeleton().Voxels(), voxel.DefaultConnectivity)
	AssertNoError(t, err)
	return g
}

// Blade returns the blade voxels of a leaf inserted at z in d, excluding
// the part inside the stem column.
func Blade(z, length int64, d Direction) voxel.Set {
	out := make(voxel.Set)
	for k := int64(2); k <= length; k++ {
		for w := int64(-1); w <= 1; w++ {
			out.Add(voxel.Position{X: d.DX*k + d.DY*w, Y: d.DY*k + d.DX*w, Z: z})
		}
	}
	return out
}

func (p *Plant) leafSegment(z, length int64, d Direction) *skeleton.Segment {
	voxels := column(z)
	voxels.Merge(Blade(z, length, d))

	path := columnPath(z)
	for k := int64(1); k <= length; k++ {
		path = append(path, voxel.Position{X: d.DX * k, Y: d.DY * k, Z: z})
	}
	return skeleton.NewSegment(voxels, path)
}

func column(height int64) voxel.Set {
	out := make(voxel.Set)
	for z := int64(0); z <= height; z++ {
		for y := int64(-1); y <= 1; y++ {
			for x := int64(-1); x <= 1; x++ {
				out.Add(voxel.Position{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func columnPath(height int64) voxel.Polyline {
	path := make(voxel.Polyline, 0, height+1)
	for z := int64(0); z <= height; z++ {
		path = append(path, voxel.Position{Z: z})
	}
	return path
}
