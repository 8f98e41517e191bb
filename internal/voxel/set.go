package voxel

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of voxel positions.
// A nil Set is a valid empty set for every read-only method.
type Set map[Position]struct{}

// NewSet builds a set from the given positions.
func NewSet(positions ...Position) Set {
	s := make(Set, len(positions))
	for _, p := range positions {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p.
func (s Set) Add(p Position) { s[p] = struct{}{} }

// Has reports whether p is a member.
func (s Set) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Clone returns an independent copy. Cloning nil yields an empty, non-nil set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Merge adds every member of o to s in place.
func (s Set) Merge(o Set) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Remove deletes every member of o from s in place.
func (s Set) Remove(o Set) {
	for p := range o {
		delete(s, p)
	}
}

// Difference returns s - o as a new set.
func (s Set) Difference(o Set) Set {
	out := make(Set, len(s))
	for p := range s {
		if _, ok := o[p]; !ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// Intersect returns s ∩ o as a new set.
func (s Set) Intersect(o Set) Set {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for p := range small {
		if _, ok := large[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// IntersectLen returns |s ∩ o| without allocating.
func (s Set) IntersectLen(o Set) int {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for p := range small {
		if _, ok := large[p]; ok {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any of the positions is a member.
func (s Set) ContainsAny(positions []Position) bool {
	for _, p := range positions {
		if _, ok := s[p]; ok {
			return true
		}
	}
	return false
}

// Equal reports whether both sets have the same members.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for p := range s {
		if _, ok := o[p]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the members in (Z, Y, X) order.
func (s Set) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Union returns the union of all sets as a new set.
func Union(sets ...Set) Set {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make(Set, n)
	for _, s := range sets {
		for p := range s {
			out[p] = struct{}{}
		}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array of positions so output is
// stable across runs.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of positions.
func (s *Set) UnmarshalJSON(data []byte) error {
	var positions []Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return err
	}
	*s = NewSet(positions...)
	return nil
}
