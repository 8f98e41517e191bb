// Package annex redistributes ambiguous voxel regions to the organ that
// surrounds them.
package annex

import "github.com/banshee-data/phenomenal/internal/voxel"

// ContactAnnexer absorbs a candidate region into the claimant when enough
// of the region's graph boundary touches the claimant.
type ContactAnnexer struct{}

// NewContactAnnexer returns the default annexer.
func NewContactAnnexer() *ContactAnnexer { return &ContactAnnexer{} }

// Annex splits candidate into connected components (candidate voxels that
// already belong to the claimant are ignored) and absorbs every component
// whose boundary lies at least percentage % inside claimant. It returns
// the enlarged claimant and the components left over, in graph order.
//
// A component with an empty boundary is isolated and never absorbed.
// Candidate voxels that are not graph nodes come back as single-voxel
// leftovers so no voxel is lost. claimant is not modified.
func (ContactAnnexer) Annex(g *voxel.Graph, claimant, candidate voxel.Set, percentage float64) (voxel.Set, []voxel.Set) {
	enlarged := claimant.Clone()
	rest := candidate.Difference(claimant)
	if rest.Len() == 0 {
		return enlarged, nil
	}

	var leftovers []voxel.Set
	for _, comp := range g.InducedSubgraph(rest).ConnectedComponents() {
		if ContactShare(g, comp, claimant) >= percentage {
			enlarged.Merge(comp)
			continue
		}
		leftovers = append(leftovers, comp)
	}

	for _, p := range rest.Sorted() {
		if !g.Has(p) {
			leftovers = append(leftovers, voxel.NewSet(p))
		}
	}
	return enlarged, leftovers
}

// ContactShare is the percentage of the component's boundary nodes that
// belong to claimant; 0 when the component has no boundary.
func ContactShare(g *voxel.Graph, comp, claimant voxel.Set) float64 {
	boundary := g.Boundary(comp)
	if boundary.Len() == 0 {
		return 0
	}
	return float64(boundary.IntersectLen(claimant)) * 100 / float64(boundary.Len())
}
