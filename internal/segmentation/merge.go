package segmentation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// MergeRule decides whether two same-class organ fragments belong together.
type MergeRule struct {
	Class organ.Label

	// PolylinePercent is the share of one organ's real longest polyline
	// that must lie inside the other organ's voxels, in either direction.
	PolylinePercent float64

	// VoxelGate additionally requires the voxel intersection to cover
	// VoxelPercent of either organ. Used for cornet leaves, which cluster
	// tightly around the stem top.
	VoxelGate    bool
	VoxelPercent float64
}

// view caches the sets a rule compares.
type view struct {
	voxels voxel.Set
	path   voxel.Set
}

func newView(o *organ.Organ) view {
	return view{voxels: o.Voxels(), path: o.RealLongestPolyline().Set()}
}

// percentOf returns |part| * 100 / whole, or 0 when whole is empty.
func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Overlap returns the four overlap percentages between a and b:
// val1 is a's real path inside b's voxels, val2 the reverse, val3 the
// voxel intersection over b's voxels and val4 over a's voxels.
func Overlap(a, b *organ.Organ) (val1, val2, val3, val4 float64) {
	return overlap(newView(a), newView(b))
}

func overlap(a, b view) (val1, val2, val3, val4 float64) {
	val1 = percentOf(a.path.IntersectLen(b.voxels), a.path.Len())
	val2 = percentOf(b.path.IntersectLen(a.voxels), b.path.Len())
	common := a.voxels.IntersectLen(b.voxels)
	val3 = percentOf(common, b.voxels.Len())
	val4 = percentOf(common, a.voxels.Len())
	return val1, val2, val3, val4
}

// ShouldMerge evaluates the rule on two organs.
func (r MergeRule) ShouldMerge(a, b *organ.Organ) bool {
	return r.match(newView(a), newView(b))
}

func (r MergeRule) match(a, b view) bool {
	val1, val2, val3, val4 := overlap(a, b)
	if val1 < r.PolylinePercent && val2 < r.PolylinePercent {
		return false
	}
	if !r.VoxelGate {
		return true
	}
	return val3 >= r.VoxelPercent || val4 >= r.VoxelPercent
}

// disjointSet is a union-find over organ indices.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
	}
	return ds
}

func (ds *disjointSet) find(i int) int {
	for ds.parent[i] != i {
		ds.parent[i] = ds.parent[ds.parent[i]]
		i = ds.parent[i]
	}
	return i
}

// union joins the sets of i and j and reports whether they were distinct.
func (ds *disjointSet) union(i, j int) bool {
	ri, rj := ds.find(i), ds.find(j)
	if ri == rj {
		return false
	}
	switch {
	case ds.rank[ri] < ds.rank[rj]:
		ds.parent[ri] = rj
	case ds.rank[ri] > ds.rank[rj]:
		ds.parent[rj] = ri
	default:
		ds.parent[rj] = ri
		ds.rank[ri]++
	}
	return true
}

// MergeFragments consolidates organs whose pairwise overlap satisfies rule.
//
// Every pair is tested (in parallel, bounded by workers) and matching pairs
// are joined in a union-find; each connected group becomes one organ whose
// segments follow input order, and groups are ordered by their first
// member. Merged organs expose new polylines and voxels, so rounds repeat
// until no pair matches. The result is therefore order-independent with
// respect to which pair is found first, and merging it again is a no-op.
// The second result counts the organs absorbed into others.
func MergeFragments(ctx context.Context, organs []*organ.Organ, rule MergeRule, workers int) ([]*organ.Organ, int, error) {
	if workers < 1 {
		workers = 1
	}
	current := organs
	merged := 0
	for round := 1; ; round++ {
		if len(current) < 2 {
			return current, merged, nil
		}
		next, n, err := mergeRound(ctx, current, rule, workers)
		if err != nil {
			return nil, merged, err
		}
		if n == 0 {
			return current, merged, nil
		}
		monitoring.Debugf("[segmentation] %s merge round %d: %d -> %d organs", rule.Class, round, len(current), len(next))
		merged += n
		current = next
	}
}

func mergeRound(ctx context.Context, organs []*organ.Organ, rule MergeRule, workers int) ([]*organ.Organ, int, error) {
	n := len(organs)
	views := make([]view, n)
	for i, o := range organs {
		views[i] = newView(o)
	}

	// matches[i] lists j > i; each row is owned by one goroutine.
	matches := make([][]int, n)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				if rule.match(views[i], views[j]) {
					matches[i] = append(matches[i], j)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	ds := newDisjointSet(n)
	unions := 0
	for i, row := range matches {
		for _, j := range row {
			if ds.union(i, j) {
				unions++
			}
		}
	}
	if unions == 0 {
		return organs, 0, nil
	}

	groupOf := make(map[int]*organ.Organ, n-unions)
	out := make([]*organ.Organ, 0, n-unions)
	for i, o := range organs {
		root := ds.find(i)
		g, ok := groupOf[root]
		if !ok {
			g = organ.New(rule.Class)
			groupOf[root] = g
			out = append(out, g)
		}
		g.Segments = append(g.Segments, o.Segments...)
	}
	return out, unions, nil
}
