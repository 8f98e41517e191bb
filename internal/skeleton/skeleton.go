// Package skeleton holds the branch-and-path representation of a plant that
// the skeletonizer hands to organ segmentation.
//
// Key types: Segment, Skeleton.
package skeleton

import (
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Segment is one branch of the skeleton.
//
// Voxels and Polyline come from the skeletonizer. LeafVoxels and
// RealPolyline are filled during segmentation: LeafVoxels is the part of
// the branch that survives stem removal, RealPolyline the sub-path of
// Polyline that lies inside it.
type Segment struct {
	Voxels       voxel.Set      `json:"voxels"`
	Polyline     voxel.Polyline `json:"polyline"`
	LeafVoxels   voxel.Set      `json:"leaf_voxels,omitempty"`
	RealPolyline voxel.Polyline `json:"real_polyline,omitempty"`
}

// NewSegment creates a segment from its voxels and base-to-tip path.
func NewSegment(voxels voxel.Set, polyline voxel.Polyline) *Segment {
	if voxels == nil {
		voxels = make(voxel.Set)
	}
	return &Segment{Voxels: voxels, Polyline: polyline}
}

// Clone returns a deep copy so segmentation never writes into the caller's
// skeleton.
func (s *Segment) Clone() *Segment {
	c := &Segment{
		Voxels:       s.Voxels.Clone(),
		Polyline:     s.Polyline.Clone(),
		RealPolyline: s.RealPolyline.Clone(),
	}
	if s.LeafVoxels != nil {
		c.LeafVoxels = s.LeafVoxels.Clone()
	}
	return c
}

// Trim sets RealPolyline from the current LeafVoxels and returns it.
func (s *Segment) Trim() voxel.Polyline {
	s.RealPolyline = TrimPolyline(s.Polyline, s.LeafVoxels)
	return s.RealPolyline
}

// Skeleton is the ordered collection of segments extracted from one plant.
type Skeleton struct {
	Segments   []*Segment `json:"segments"`
	BallRadius float64    `json:"ball_radius"`
	VoxelSize  float64    `json:"voxel_size"`
}

// Voxels returns the union of all segment voxels.
func (sk *Skeleton) Voxels() voxel.Set {
	sets := make([]voxel.Set, len(sk.Segments))
	for i, s := range sk.Segments {
		sets[i] = s.Voxels
	}
	return voxel.Union(sets...)
}

// Clone deep-copies the skeleton.
func (sk *Skeleton) Clone() *Skeleton {
	out := &Skeleton{
		Segments:   make([]*Segment, len(sk.Segments)),
		BallRadius: sk.BallRadius,
		VoxelSize:  sk.VoxelSize,
	}
	for i, s := range sk.Segments {
		out.Segments[i] = s.Clone()
	}
	return out
}

// Highest returns the index of the segment whose polyline reaches the
// greatest Z. Ties keep the first segment encountered; segments with an
// empty polyline are skipped. Returns -1 when no segment has a path.
func (sk *Skeleton) Highest() int {
	best := -1
	var bestZ int64
	for i, s := range sk.Segments {
		z, ok := s.Polyline.MaxZ()
		if !ok {
			continue
		}
		if best < 0 || z > bestZ {
			best, bestZ = i, z
		}
	}
	return best
}
