package annex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/voxel"
)

func line(x0, x1 int64) voxel.Set {
	s := make(voxel.Set)
	for x := x0; x <= x1; x++ {
		s.Add(voxel.Position{X: x})
	}
	return s
}

func graphOf(t *testing.T, sets ...voxel.Set) *voxel.Graph {
	t.Helper()
	g, err := voxel.BuildGraph(voxel.Union(sets...), voxel.Face)
	require.NoError(t, err)
	return g
}

func TestContactAnnexer_AbsorbsEnclosedRegion(t *testing.T) {
	// claimant | candidate | claimant along a line: the candidate's boundary
	// is entirely claimant.
	claimant := voxel.Union(line(0, 2), line(6, 8))
	candidate := line(3, 5)
	g := graphOf(t, claimant, candidate)

	enlarged, leftovers := NewContactAnnexer().Annex(g, claimant, candidate, 50)
	assert.Empty(t, leftovers)
	assert.Equal(t, 9, enlarged.Len())
	assert.Equal(t, 6, claimant.Len(), "input claimant is not modified")
}

func TestContactAnnexer_ThresholdBoundary(t *testing.T) {
	// Candidate 3..5 touches the claimant at 2 and a stranger at 6: 50%.
	claimant := line(0, 2)
	candidate := line(3, 5)
	stranger := line(6, 6)
	g := graphOf(t, claimant, candidate, stranger)

	assert.InDelta(t, 50.0, ContactShare(g, candidate, claimant), 1e-9)

	enlarged, leftovers := NewContactAnnexer().Annex(g, claimant, candidate, 50)
	assert.Empty(t, leftovers)
	assert.True(t, enlarged.Has(voxel.Position{X: 5}))

	enlarged, leftovers = NewContactAnnexer().Annex(g, claimant, candidate, 50.01)
	require.Len(t, leftovers, 1)
	assert.True(t, leftovers[0].Equal(candidate))
	assert.True(t, enlarged.Equal(claimant))
}

func TestContactAnnexer_NeverLosesVoxels(t *testing.T) {
	claimant := line(0, 2)
	touching := line(3, 4)
	isolated := line(10, 11)
	outside := voxel.NewSet(voxel.Position{Y: 40})
	g := graphOf(t, claimant, touching, isolated)

	candidate := voxel.Union(touching, isolated, outside, voxel.NewSet(voxel.Position{X: 1}))
	enlarged, leftovers := NewContactAnnexer().Annex(g, claimant, candidate, 50)

	assert.True(t, enlarged.Has(voxel.Position{X: 4}))
	want := []voxel.Set{isolated, outside}
	if diff := cmp.Diff(want, leftovers); diff != "" {
		t.Errorf("leftovers mismatch (-want +got):\n%s", diff)
	}

	// Every candidate voxel is absorbed or in exactly one leftover.
	got := enlarged.Clone()
	for _, l := range leftovers {
		assert.Zero(t, got.IntersectLen(l))
		got.Merge(l)
	}
	assert.True(t, got.Equal(voxel.Union(claimant, candidate)))
}

func TestContactAnnexer_EmptyCandidate(t *testing.T) {
	claimant := line(0, 2)
	g := graphOf(t, claimant)
	enlarged, leftovers := NewContactAnnexer().Annex(g, claimant, nil, 50)
	assert.Nil(t, leftovers)
	assert.True(t, enlarged.Equal(claimant))
}

func TestContactShare_IsolatedComponent(t *testing.T) {
	comp := line(0, 1)
	g := graphOf(t, comp)
	assert.Zero(t, ContactShare(g, comp, voxel.NewSet()))
}
