package segmentation

import (
	"errors"

	"github.com/banshee-data/phenomenal/internal/stem"
)

var (
	// ErrEmptySkeleton is returned before any graph work when the skeleton
	// has no segments.
	ErrEmptySkeleton = errors.New("skeleton has no segments")

	// ErrMalformedSkeleton is returned when a segment's tip is missing or
	// falls outside every leaf component once the stem is removed.
	ErrMalformedSkeleton = errors.New("malformed skeleton")

	// ErrStemNotFound is returned when the stem detector finds no stem in
	// the highest segment.
	ErrStemNotFound = stem.ErrNotFound
)
