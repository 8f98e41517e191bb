package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/phenomenal/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the segmentation tuning parameters. The
// thresholds are empirical and specific to the species and imaging setup,
// so every one of them can be overridden from a file.
type TuningConfig struct {
	// Organ classification
	NoiseLength *float64 `json:"noise_length,omitempty" yaml:"noise_length,omitempty"` // world units; real paths at or below are noise

	// Fragment merging (percentages, 0-100)
	MatureOverlapPercent      *float64 `json:"mature_overlap_percent,omitempty" yaml:"mature_overlap_percent,omitempty"`
	CornetOverlapPercent      *float64 `json:"cornet_overlap_percent,omitempty" yaml:"cornet_overlap_percent,omitempty"`
	CornetVoxelOverlapPercent *float64 `json:"cornet_voxel_overlap_percent,omitempty" yaml:"cornet_voxel_overlap_percent,omitempty"`

	// Region annexation (percentage, 0-100)
	AnnexPercent *float64 `json:"annex_percent,omitempty" yaml:"annex_percent,omitempty"`

	// Graph
	GraphConnectivity *int `json:"graph_connectivity,omitempty" yaml:"graph_connectivity,omitempty"` // 6, 18 or 26

	// Organ geometry queries
	ClosestNodesDistance *float64 `json:"closest_nodes_distance,omitempty" yaml:"closest_nodes_distance,omitempty"` // voxels

	// Stem detection
	StemMaxTiltDegrees *float64 `json:"stem_max_tilt_degrees,omitempty" yaml:"stem_max_tilt_degrees,omitempty"`
	StemRadiusVoxels   *float64 `json:"stem_radius_voxels,omitempty" yaml:"stem_radius_voxels,omitempty"`
	StemTopFraction    *float64 `json:"stem_top_fraction,omitempty" yaml:"stem_top_fraction,omitempty"`

	// Parallelism; 0 means GOMAXPROCS
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// built-in default.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		NoiseLength:               ptrFloat64(defaultNoiseLength),
		MatureOverlapPercent:      ptrFloat64(defaultMatureOverlapPercent),
		CornetOverlapPercent:      ptrFloat64(defaultCornetOverlapPercent),
		CornetVoxelOverlapPercent: ptrFloat64(defaultCornetVoxelOverlapPercent),
		AnnexPercent:              ptrFloat64(defaultAnnexPercent),
		GraphConnectivity:         ptrInt(defaultGraphConnectivity),
		ClosestNodesDistance:      ptrFloat64(defaultClosestNodesDistance),
		StemMaxTiltDegrees:        ptrFloat64(defaultStemMaxTiltDegrees),
		StemRadiusVoxels:          ptrFloat64(defaultStemRadiusVoxels),
		StemTopFraction:           ptrFloat64(defaultStemTopFraction),
		Workers:                   ptrInt(0),
	}
}

const (
	defaultNoiseLength               = 30.0
	defaultMatureOverlapPercent      = 50.0
	defaultCornetOverlapPercent      = 85.0
	defaultCornetVoxelOverlapPercent = 85.0
	defaultAnnexPercent              = 50.0
	defaultGraphConnectivity         = 26
	defaultClosestNodesDistance      = 4.0
	defaultStemMaxTiltDegrees        = 30.0
	defaultStemRadiusVoxels          = 4.0
	defaultStemTopFraction           = 0.1
)

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The file is validated to ensure it has a known extension and is under the max file size.
// Fields omitted from the file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	return LoadTuningConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadTuningConfigFS is LoadTuningConfig reading through fsys.
func LoadTuningConfigFS(fsys fsutil.FileSystem, path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the file.
	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.NoiseLength != nil && *c.NoiseLength < 0 {
		return fmt.Errorf("noise_length must be non-negative, got %f", *c.NoiseLength)
	}

	percents := []struct {
		name  string
		value *float64
	}{
		{"mature_overlap_percent", c.MatureOverlapPercent},
		{"cornet_overlap_percent", c.CornetOverlapPercent},
		{"cornet_voxel_overlap_percent", c.CornetVoxelOverlapPercent},
		{"annex_percent", c.AnnexPercent},
	}
	for _, p := range percents {
		if p.value != nil && (*p.value < 0 || *p.value > 100) {
			return fmt.Errorf("%s must be between 0 and 100, got %f", p.name, *p.value)
		}
	}

	if c.GraphConnectivity != nil {
		switch *c.GraphConnectivity {
		case 6, 18, 26:
		default:
			return fmt.Errorf("graph_connectivity must be 6, 18 or 26, got %d", *c.GraphConnectivity)
		}
	}

	if c.ClosestNodesDistance != nil && *c.ClosestNodesDistance < 0 {
		return fmt.Errorf("closest_nodes_distance must be non-negative, got %f", *c.ClosestNodesDistance)
	}

	if c.StemMaxTiltDegrees != nil && (*c.StemMaxTiltDegrees <= 0 || *c.StemMaxTiltDegrees >= 90) {
		return fmt.Errorf("stem_max_tilt_degrees must be in (0, 90), got %f", *c.StemMaxTiltDegrees)
	}
	if c.StemRadiusVoxels != nil && *c.StemRadiusVoxels <= 0 {
		return fmt.Errorf("stem_radius_voxels must be positive, got %f", *c.StemRadiusVoxels)
	}
	if c.StemTopFraction != nil && (*c.StemTopFraction < 0 || *c.StemTopFraction > 1) {
		return fmt.Errorf("stem_top_fraction must be between 0 and 1, got %f", *c.StemTopFraction)
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	return nil
}

// GetNoiseLength returns the noise_length value or the default.
func (c *TuningConfig) GetNoiseLength() float64 {
	if c.NoiseLength == nil {
		return defaultNoiseLength
	}
	return *c.NoiseLength
}

// GetMatureOverlapPercent returns the mature_overlap_percent value or the default.
func (c *TuningConfig) GetMatureOverlapPercent() float64 {
	if c.MatureOverlapPercent == nil {
		return defaultMatureOverlapPercent
	}
	return *c.MatureOverlapPercent
}

// GetCornetOverlapPercent returns the cornet_overlap_percent value or the default.
func (c *TuningConfig) GetCornetOverlapPercent() float64 {
	if c.CornetOverlapPercent == nil {
		return defaultCornetOverlapPercent
	}
	return *c.CornetOverlapPercent
}

// GetCornetVoxelOverlapPercent returns the cornet_voxel_overlap_percent value or the default.
func (c *TuningConfig) GetCornetVoxelOverlapPercent() float64 {
	if c.CornetVoxelOverlapPercent == nil {
		return defaultCornetVoxelOverlapPercent
	}
	return *c.CornetVoxelOverlapPercent
}

// GetAnnexPercent returns the annex_percent value or the default.
func (c *TuningConfig) GetAnnexPercent() float64 {
	if c.AnnexPercent == nil {
		return defaultAnnexPercent
	}
	return *c.AnnexPercent
}

// GetGraphConnectivity returns the graph_connectivity value or the default.
func (c *TuningConfig) GetGraphConnectivity() int {
	if c.GraphConnectivity == nil {
		return defaultGraphConnectivity
	}
	return *c.GraphConnectivity
}

// GetClosestNodesDistance returns the closest_nodes_distance value or the default.
func (c *TuningConfig) GetClosestNodesDistance() float64 {
	if c.ClosestNodesDistance == nil {
		return defaultClosestNodesDistance
	}
	return *c.ClosestNodesDistance
}

// GetStemMaxTiltDegrees returns the stem_max_tilt_degrees value or the default.
func (c *TuningConfig) GetStemMaxTiltDegrees() float64 {
	if c.StemMaxTiltDegrees == nil {
		return defaultStemMaxTiltDegrees
	}
	return *c.StemMaxTiltDegrees
}

// GetStemRadiusVoxels returns the stem_radius_voxels value or the default.
func (c *TuningConfig) GetStemRadiusVoxels() float64 {
	if c.StemRadiusVoxels == nil {
		return defaultStemRadiusVoxels
	}
	return *c.StemRadiusVoxels
}

// GetStemTopFraction returns the stem_top_fraction value or the default.
func (c *TuningConfig) GetStemTopFraction() float64 {
	if c.StemTopFraction == nil {
		return defaultStemTopFraction
	}
	return *c.StemTopFraction
}

// GetWorkers returns the workers value or the default (0, meaning GOMAXPROCS).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}
