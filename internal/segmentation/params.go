package segmentation

import (
	"runtime"

	"github.com/banshee-data/phenomenal/internal/config"
	"github.com/banshee-data/phenomenal/internal/organ"
)

// Params holds the segmentation thresholds. Lengths are in world units,
// percentages in [0, 100].
type Params struct {
	NoiseLength               float64 // real paths this long or shorter are unknown
	MatureOverlapPercent      float64
	CornetOverlapPercent      float64
	CornetVoxelOverlapPercent float64
	AnnexPercent              float64
	Workers                   int // 0 means GOMAXPROCS
}

// DefaultParams returns the thresholds established for maize.
func DefaultParams() Params {
	return ParamsFromConfig(config.DefaultTuningConfig())
}

// ParamsFromConfig reads the thresholds from a tuning config; unset fields
// take their defaults.
func ParamsFromConfig(cfg *config.TuningConfig) Params {
	return Params{
		NoiseLength:               cfg.GetNoiseLength(),
		MatureOverlapPercent:      cfg.GetMatureOverlapPercent(),
		CornetOverlapPercent:      cfg.GetCornetOverlapPercent(),
		CornetVoxelOverlapPercent: cfg.GetCornetVoxelOverlapPercent(),
		AnnexPercent:              cfg.GetAnnexPercent(),
		Workers:                   cfg.GetWorkers(),
	}
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// MatureRule is the merge rule for mature leaves.
func (p Params) MatureRule() MergeRule {
	return MergeRule{Class: organ.LabelMatureLeaf, PolylinePercent: p.MatureOverlapPercent}
}

// CornetRule is the merge rule for cornet leaves, with the voxel gate on.
func (p Params) CornetRule() MergeRule {
	return MergeRule{
		Class:           organ.LabelCornetLeaf,
		PolylinePercent: p.CornetOverlapPercent,
		VoxelGate:       true,
		VoxelPercent:    p.CornetVoxelOverlapPercent,
	}
}
