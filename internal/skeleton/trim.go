package skeleton

import "github.com/banshee-data/phenomenal/internal/voxel"

// TrimPolyline returns the part of polyline owned by the given voxels.
//
// The path is scanned from the tip toward the base; the boundary is the
// first point (counting from the tip) that is not owned. The result is
// polyline[boundary : len-1]: the boundary point is kept and the tip itself
// is dropped. When every point is owned the boundary is the base, so the
// whole path minus its tip is returned. The result always aliases a
// contiguous window of polyline.
func TrimPolyline(polyline voxel.Polyline, owned voxel.Set) voxel.Polyline {
	if len(polyline) == 0 {
		return voxel.Polyline{}
	}

	tip := len(polyline) - 1
	base := 0
	for i := tip; i >= 0; i-- {
		if !owned.Has(polyline[i]) {
			base = i
			break
		}
	}
	return polyline[base:tip]
}
