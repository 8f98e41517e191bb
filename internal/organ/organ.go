// Package organ defines the labelled output of plant segmentation: organs
// built from skeleton segments, and the ordered segmentation artifact.
package organ

import (
	"github.com/banshee-data/phenomenal/internal/geometry"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Label is the biological class assigned to an organ.
type Label string

const (
	// LabelStem is the main upright axis.
	LabelStem Label = "stem"
	// LabelMatureLeaf is an unfurled leaf away from the growing point.
	LabelMatureLeaf Label = "mature_leaf"
	// LabelCornetLeaf is a leaf still curled around the growing point.
	LabelCornetLeaf Label = "cornet_leaf"
	// LabelUnknown collects leftover voxels and fragments too short to trust.
	LabelUnknown Label = "unknown"
)

// IsLeaf reports whether the label is one of the two leaf classes.
func (l Label) IsLeaf() bool {
	return l == LabelMatureLeaf || l == LabelCornetLeaf
}

// Organ is a labelled group of skeleton segments.
type Organ struct {
	Label    Label               `json:"label"`
	Segments []*skeleton.Segment `json:"segments"`
	Info     map[string]float64  `json:"info,omitempty"`
}

// New creates an empty organ.
func New(label Label) *Organ {
	return &Organ{Label: label, Info: make(map[string]float64)}
}

// AddSegment appends a new segment built from voxels and polyline.
func (o *Organ) AddSegment(voxels voxel.Set, polyline voxel.Polyline) {
	o.Segments = append(o.Segments, skeleton.NewSegment(voxels, polyline))
}

// Voxels returns the union of the member segments' voxels.
func (o *Organ) Voxels() voxel.Set {
	sets := make([]voxel.Set, len(o.Segments))
	for i, s := range o.Segments {
		sets[i] = s.Voxels
	}
	return voxel.Union(sets...)
}

// longestSegment returns the member with the longest polyline; the first
// one wins ties. Nil when the organ has no segment with a path.
func (o *Organ) longestSegment() *skeleton.Segment {
	var best *skeleton.Segment
	for _, s := range o.Segments {
		if len(s.Polyline) == 0 {
			continue
		}
		if best == nil || len(s.Polyline) > len(best.Polyline) {
			best = s
		}
	}
	return best
}

// LongestPolyline returns the longest member polyline.
func (o *Organ) LongestPolyline() voxel.Polyline {
	if s := o.longestSegment(); s != nil {
		return s.Polyline
	}
	return voxel.Polyline{}
}

// RealLongestPolyline trims the longest polyline against the voxels of the
// whole organ rather than a single segment's leaf voxels.
func (o *Organ) RealLongestPolyline() voxel.Polyline {
	return skeleton.TrimPolyline(o.LongestPolyline(), o.Voxels())
}

// HighestPolyline returns the member polyline reaching the greatest Z,
// first one on ties.
func (o *Organ) HighestPolyline() voxel.Polyline {
	var (
		best  voxel.Polyline
		bestZ int64
		found bool
	)
	for _, s := range o.Segments {
		z, ok := s.Polyline.MaxZ()
		if !ok {
			continue
		}
		if !found || z > bestZ {
			best, bestZ, found = s.Polyline, z, true
		}
	}
	if !found {
		return voxel.Polyline{}
	}
	return best
}

// ClosestNodes slices the organ with planes orthogonal to its longest
// polyline and returns, for each path point, the organ voxels within dist
// voxels of that plane together with the plane. Connectivity filtering is
// disabled, matching the downstream leaf-width measurements.
func (o *Organ) ClosestNodes(dist float64) ([]voxel.Set, []geometry.Plane) {
	return geometry.ClosestNodesOnPlanes(o.Voxels(), o.LongestPolyline(), dist, true)
}
