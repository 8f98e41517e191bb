package segmentation

import (
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// assemble emits organs in the fixed order: unknown, stem, cornet leaves,
// mature leaves. The unknown and stem organs are always present.
func assemble(sk *skeleton.Skeleton, part *partitionResult, unknown []*skeleton.Segment, cornets, matures []*organ.Organ) *organ.Segmentation {
	out := organ.NewSegmentation(sk.VoxelSize, sk.BallRadius)

	u := organ.New(organ.LabelUnknown)
	u.AddSegment(part.remain, voxel.Polyline{})
	u.Segments = append(u.Segments, unknown...)
	out.Organs = append(out.Organs, u)

	st := organ.New(organ.LabelStem)
	st.AddSegment(part.stemVoxels, part.stemPath)
	out.Organs = append(out.Organs, st)

	out.Organs = append(out.Organs, cornets...)
	out.Organs = append(out.Organs, matures...)

	claimOwnership(part.stemVoxels, cornets, matures, unknown)
	return out
}

// claimOwnership makes segment voxel sets disjoint. Branches that overlap
// keep their full leaf components through merging; only the emitted
// ownership is resolved here. Leaves claim in emission order, then unknown
// segments take what is left. LeafVoxels is not touched.
func claimOwnership(stem voxel.Set, cornets, matures []*organ.Organ, unknown []*skeleton.Segment) {
	claimed := stem.Clone()
	claim := func(seg *skeleton.Segment) {
		if n := seg.Voxels.IntersectLen(claimed); n > 0 {
			seg.Voxels = seg.Voxels.Difference(claimed)
			monitoring.Debugf("[segmentation] %d voxels already owned by an earlier organ", n)
		}
		claimed.Merge(seg.Voxels)
	}
	for _, group := range [][]*organ.Organ{cornets, matures} {
		for _, o := range group {
			for _, seg := range o.Segments {
				claim(seg)
			}
		}
	}
	for _, seg := range unknown {
		claim(seg)
	}
}
