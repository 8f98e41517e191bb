package organ

import (
	"encoding/json"
	"fmt"
	"io"
)

// Segmentation is the result of segmenting one plant. Organs are emitted in
// a fixed order: the unknown organ, the stem, every cornet leaf, then every
// mature leaf.
type Segmentation struct {
	VoxelSize  float64  `json:"voxel_size"`
	BallRadius float64  `json:"ball_radius"`
	Organs     []*Organ `json:"organs"`
}

// NewSegmentation creates an empty segmentation.
func NewSegmentation(voxelSize, ballRadius float64) *Segmentation {
	return &Segmentation{VoxelSize: voxelSize, BallRadius: ballRadius}
}

// Unknown returns the unknown organ, or nil if none was emitted.
func (s *Segmentation) Unknown() *Organ { return s.first(LabelUnknown) }

// Stem returns the stem organ, or nil if none was emitted.
func (s *Segmentation) Stem() *Organ { return s.first(LabelStem) }

func (s *Segmentation) first(label Label) *Organ {
	for _, o := range s.Organs {
		if o.Label == label {
			return o
		}
	}
	return nil
}

// ByLabel returns every organ with the given label, in emission order.
func (s *Segmentation) ByLabel(label Label) []*Organ {
	var out []*Organ
	for _, o := range s.Organs {
		if o.Label == label {
			out = append(out, o)
		}
	}
	return out
}

// Leaves returns the cornet leaves followed by the mature leaves.
func (s *Segmentation) Leaves() []*Organ {
	var out []*Organ
	for _, o := range s.Organs {
		if o.Label.IsLeaf() {
			out = append(out, o)
		}
	}
	return out
}

// Counts returns the number of organs per label.
func (s *Segmentation) Counts() map[Label]int {
	counts := make(map[Label]int, 4)
	for _, o := range s.Organs {
		counts[o.Label]++
	}
	return counts
}

// WriteJSON encodes the segmentation with indentation.
func (s *Segmentation) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode segmentation: %w", err)
	}
	return nil
}

// ReadJSON decodes a segmentation written by WriteJSON.
func ReadJSON(r io.Reader) (*Segmentation, error) {
	var s Segmentation
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode segmentation: %w", err)
	}
	return &s, nil
}
