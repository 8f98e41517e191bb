package segmentation

import (
	"context"
	"errors"

	"github.com/banshee-data/phenomenal/internal/annex"
	"github.com/banshee-data/phenomenal/internal/config"
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/stem"
	"github.com/banshee-data/phenomenal/internal/timeutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// StemDetector abstracts stem detection so alternative algorithms can be
// swapped in and the orchestration tested without them.
type StemDetector interface {
	// Detect splits the graph into stem and non-stem voxels using the
	// highest segment's voxels and base-to-tip path. It must return
	// stem voxels drawn from voxels, and an error wrapping
	// stem.ErrNotFound when no stem exists.
	Detect(voxels voxel.Set, path voxel.Polyline, voxelSize float64, g *voxel.Graph) (stem.Result, error)
}

// RegionAnnexer abstracts the redistribution of ambiguous voxels.
type RegionAnnexer interface {
	// Annex absorbs sufficiently connected components of candidate into
	// claimant. The result is a superset of claimant; every candidate
	// voxel is either absorbed or present in exactly one leftover.
	Annex(g *voxel.Graph, claimant, candidate voxel.Set, percentage float64) (voxel.Set, []voxel.Set)
}

// Segmenter runs organ segmentation. It holds no per-call state and is
// safe for concurrent use.
type Segmenter struct {
	params   Params
	detector StemDetector
	annexer  RegionAnnexer
	metrics  *monitoring.Metrics
	clock    timeutil.Clock
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithStemDetector replaces the default vertical stem detector.
func WithStemDetector(d StemDetector) Option {
	return func(s *Segmenter) { s.detector = d }
}

// WithRegionAnnexer replaces the default contact annexer.
func WithRegionAnnexer(a RegionAnnexer) Option {
	return func(s *Segmenter) { s.annexer = a }
}

// WithMetrics records segmentation counters on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Segmenter) { s.metrics = m }
}

// WithClock replaces the clock used to time segmentation calls.
func WithClock(c timeutil.Clock) Option {
	return func(s *Segmenter) { s.clock = c }
}

// NewSegmenter creates a segmenter using the default stem detector and
// annexer unless overridden.
func NewSegmenter(params Params, opts ...Option) *Segmenter {
	s := &Segmenter{
		params:   params,
		detector: stem.DefaultVerticalDetector(),
		annexer:  annex.NewContactAnnexer(),
		clock:    timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSegmenterFromConfig builds the thresholds and the default stem
// detector from a tuning config. Options still take precedence.
func NewSegmenterFromConfig(cfg *config.TuningConfig, opts ...Option) *Segmenter {
	detector := stem.NewVerticalDetector(
		cfg.GetStemMaxTiltDegrees(),
		cfg.GetStemRadiusVoxels(),
		cfg.GetStemTopFraction(),
	)
	return NewSegmenter(ParamsFromConfig(cfg), append([]Option{WithStemDetector(detector)}, opts...)...)
}

// Params returns the thresholds in use.
func (s *Segmenter) Params() Params { return s.params }

// Segment labels the organs of sk. g must contain every skeleton voxel.
//
// The skeleton is copied first; neither sk nor g is modified. Failures are
// all-or-nothing: ErrEmptySkeleton, ErrMalformedSkeleton, ErrStemNotFound
// (checked with errors.Is) or the context error.
func (s *Segmenter) Segment(ctx context.Context, sk *skeleton.Skeleton, g *voxel.Graph) (*organ.Segmentation, error) {
	start := s.clock.Now()
	seg, err := s.segment(ctx, sk, g)
	s.metrics.ObserveSegmentation(err, s.clock.Since(start))
	if err != nil {
		return nil, err
	}
	return seg, nil
}

func (s *Segmenter) segment(ctx context.Context, sk *skeleton.Skeleton, g *voxel.Graph) (*organ.Segmentation, error) {
	if sk == nil || len(sk.Segments) == 0 {
		return nil, ErrEmptySkeleton
	}
	if g == nil {
		return nil, errors.New("voxel graph is nil")
	}
	work := sk.Clone()

	part, err := s.partition(ctx, work, g)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classes := s.classify(work, part.stemTop)

	cornets, cornetMerges, err := MergeFragments(ctx, classes.cornets, s.params.CornetRule(), s.params.workers())
	if err != nil {
		return nil, err
	}
	matures, matureMerges, err := MergeFragments(ctx, classes.matures, s.params.MatureRule(), s.params.workers())
	if err != nil {
		return nil, err
	}
	s.metrics.AddMerges(string(organ.LabelCornetLeaf), cornetMerges)
	s.metrics.AddMerges(string(organ.LabelMatureLeaf), matureMerges)

	out := assemble(work, part, classes.unknown, cornets, matures)

	counts := out.Counts()
	for label, n := range counts {
		s.metrics.AddOrgans(string(label), n)
	}
	s.metrics.ObserveRemain(part.remain.Len())
	monitoring.Logf("[segmentation] %d segments -> %d cornet, %d mature leaves (%d/%d merges), %d unknown segments, %d remaining voxels",
		len(work.Segments), counts[organ.LabelCornetLeaf], counts[organ.LabelMatureLeaf],
		cornetMerges, matureMerges, len(classes.unknown), part.remain.Len())
	return out, nil
}
