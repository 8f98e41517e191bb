package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Plane is the set of points p with Normal·p + D = 0; Normal is unit length.
type Plane struct {
	Normal [3]float64
	D      float64
}

// PlaneThrough builds the plane through point with the given normal.
// A zero normal falls back to the horizontal plane.
func PlaneThrough(point, normal [3]float64) Plane {
	n := normal[:]
	norm := floats.Norm(n, 2)
	if norm < degenerateEpsilon {
		normal = [3]float64{0, 0, 1}
	} else {
		normal = [3]float64{normal[0] / norm, normal[1] / norm, normal[2] / norm}
	}
	return Plane{Normal: normal, D: -floats.Dot(normal[:], point[:])}
}

// Distance returns the unsigned distance from p to the plane.
func (pl Plane) Distance(p [3]float64) float64 {
	return math.Abs(floats.Dot(pl.Normal[:], p[:]) + pl.D)
}

// tangent returns the direction of the polyline at index i using a central
// difference, one-sided at both ends.
func tangent(polyline voxel.Polyline, i int) [3]float64 {
	lo, hi := i-1, i+1
	if lo < 0 {
		lo = 0
	}
	if hi > len(polyline)-1 {
		hi = len(polyline) - 1
	}
	d := polyline[hi].Sub(polyline[lo])
	return [3]float64{float64(d.X), float64(d.Y), float64(d.Z)}
}

// ClosestNodesOnPlanes slices the voxels with one plane per polyline point,
// each plane orthogonal to the local direction of the path. For every point
// it returns the voxels lying within dist (lattice units) of the plane.
//
// When withoutConnexity is false each slice is further reduced to the
// connected piece that contains the voxel closest to the polyline point, so
// parts of the organ that fold back across the plane are dropped.
func ClosestNodesOnPlanes(voxels voxel.Set, polyline voxel.Polyline, dist float64, withoutConnexity bool) ([]voxel.Set, []Plane) {
	if len(polyline) == 0 {
		return nil, nil
	}

	sorted := voxels.Sorted()
	coords := ToWorld(sorted, 1)

	nodes := make([]voxel.Set, len(polyline))
	planes := make([]Plane, len(polyline))
	for i, p := range polyline {
		x, y, z := p.World(1)
		point := [3]float64{x, y, z}
		plane := PlaneThrough(point, tangent(polyline, i))
		planes[i] = plane

		slice := make(voxel.Set)
		var closest voxel.Position
		best := math.Inf(1)
		for k, c := range coords {
			if plane.Distance(c) > dist {
				continue
			}
			slice.Add(sorted[k])
			if d := sorted[k].Distance(p); d < best {
				best, closest = d, sorted[k]
			}
		}

		if !withoutConnexity && slice.Len() > 0 {
			slice = connectedPiece(slice, closest)
		}
		nodes[i] = slice
	}
	return nodes, planes
}

func connectedPiece(slice voxel.Set, seed voxel.Position) voxel.Set {
	g, err := voxel.BuildGraph(slice, voxel.DefaultConnectivity)
	if err != nil {
		return slice
	}
	return g.InducedSubgraph(slice).ComponentOf(seed)
}
