package voxel

// Polyline is an ordered medial path through voxels, base first and tip last.
type Polyline []Position

// Tip returns the last point of the path.
func (pl Polyline) Tip() (Position, bool) {
	if len(pl) == 0 {
		return Position{}, false
	}
	return pl[len(pl)-1], true
}

// MaxZ returns the greatest Z index reached by the path.
func (pl Polyline) MaxZ() (int64, bool) {
	if len(pl) == 0 {
		return 0, false
	}
	z := pl[0].Z
	for _, p := range pl[1:] {
		if p.Z > z {
			z = p.Z
		}
	}
	return z, true
}

// Set returns the distinct points of the path.
func (pl Polyline) Set() Set {
	return NewSet(pl...)
}

// Clone returns an independent copy of the path.
func (pl Polyline) Clone() Polyline {
	if pl == nil {
		return nil
	}
	out := make(Polyline, len(pl))
	copy(out, pl)
	return out
}

// Length returns the path length in index units (sum of the Euclidean steps).
func (pl Polyline) Length() float64 {
	var total float64
	for i := 1; i < len(pl); i++ {
		total += pl[i].Distance(pl[i-1])
	}
	return total
}
