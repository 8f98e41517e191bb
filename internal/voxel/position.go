package voxel

import (
	"encoding/json"
	"fmt"
	"math"
)

// Position is a cell index on the voxel lattice. World coordinates are
// obtained by multiplying each component by the voxel size.
type Position struct {
	X, Y, Z int64
}

// Add returns p translated by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// World converts the lattice index into world coordinates.
func (p Position) World(voxelSize float64) (x, y, z float64) {
	return float64(p.X) * voxelSize, float64(p.Y) * voxelSize, float64(p.Z) * voxelSize
}

// Vec returns the position as a float slice, handy for gonum helpers.
func (p Position) Vec() []float64 {
	return []float64{float64(p.X), float64(p.Y), float64(p.Z)}
}

// Distance returns the Euclidean distance between two positions in index units.
func (p Position) Distance(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Less orders positions by Z, then Y, then X. Every deterministic iteration
// over voxels in this module uses this order.
func Less(a, b Position) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// MarshalJSON encodes the position as a compact [x, y, z] array.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int64{p.X, p.Y, p.Z})
}

// UnmarshalJSON decodes an [x, y, z] array.
func (p *Position) UnmarshalJSON(data []byte) error {
	var v []int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("voxel position: %w", err)
	}
	if len(v) != 3 {
		return fmt.Errorf("voxel position: expected 3 coordinates, got %d", len(v))
	}
	p.X, p.Y, p.Z = v[0], v[1], v[2]
	return nil
}
