package segmentation

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// partitionResult is the stem/leaf ownership split. Per-segment leaf
// ownership is written into the segments themselves.
type partitionResult struct {
	stemVoxels voxel.Set
	stemPath   voxel.Polyline
	stemTop    voxel.Set
	remain     voxel.Set
}

// partition resolves stem and per-segment leaf ownership. It sets
// LeafVoxels and RealPolyline on every segment of sk.
func (s *Segmenter) partition(ctx context.Context, sk *skeleton.Skeleton, g *voxel.Graph) (*partitionResult, error) {
	highest := sk.Highest()
	if highest < 0 {
		return nil, fmt.Errorf("%w: no segment has a polyline", ErrMalformedSkeleton)
	}
	hs := sk.Segments[highest]

	found, err := s.detector.Detect(hs.Voxels, hs.Polyline, sk.VoxelSize, g)
	if err != nil {
		if errors.Is(err, ErrStemNotFound) {
			return nil, fmt.Errorf("highest segment %d: %w", highest, err)
		}
		return nil, fmt.Errorf("stem detection on segment %d: %w", highest, err)
	}
	monitoring.Debugf("[segmentation] stem from segment %d: %d voxels, path %d, top %d",
		highest, found.StemVoxels.Len(), len(found.StemPath), found.StemTop.Len())

	if err := s.assignLeaves(ctx, sk, g, found.StemVoxels); err != nil {
		return nil, err
	}

	notStemRemaining := found.NotStemVoxels.Clone()
	for _, seg := range sk.Segments {
		notStemRemaining.Remove(seg.LeafVoxels)
	}

	stemVoxels, leftovers := s.annexer.Annex(g, found.StemVoxels, notStemRemaining, s.params.AnnexPercent)
	monitoring.Debugf("[segmentation] stem annexed %d voxels, %d components left",
		stemVoxels.Len()-found.StemVoxels.Len(), len(leftovers))

	// Sequential on purpose: each segment sees the pool its predecessors left.
	for i, seg := range sk.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := seg.LeafVoxels.Len()
		seg.LeafVoxels, leftovers = s.annexer.Annex(g, seg.LeafVoxels, voxel.Union(leftovers...), s.params.AnnexPercent)
		if n := seg.LeafVoxels.Len() - before; n > 0 {
			monitoring.Debugf("[segmentation] segment %d annexed %d voxels", i, n)
		}
	}

	return &partitionResult{
		stemVoxels: stemVoxels,
		stemPath:   found.StemPath,
		stemTop:    found.StemTop,
		remain:     voxel.Union(leftovers...),
	}, nil
}

// assignLeaves computes every segment's leaf component and trimmed path.
// Segments are independent here, so they run on a bounded worker pool.
func (s *Segmenter) assignLeaves(ctx context.Context, sk *skeleton.Skeleton, g *voxel.Graph, stemVoxels voxel.Set) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.params.workers())

	for i, seg := range sk.Segments {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tip, ok := seg.Polyline.Tip()
			if !ok {
				return fmt.Errorf("%w: segment %d has an empty polyline", ErrMalformedSkeleton, i)
			}
			leaf := g.InducedSubgraph(seg.Voxels.Difference(stemVoxels)).ComponentOf(tip)
			if leaf == nil {
				return fmt.Errorf("%w: segment %d tip %s is not in any component outside the stem", ErrMalformedSkeleton, i, tip)
			}
			seg.LeafVoxels = leaf
			seg.Trim()
			return nil
		})
	}
	return eg.Wait()
}
