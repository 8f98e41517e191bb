package skeleton

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// maxSkeletonFileSize bounds how much the loader will read (256MB).
const maxSkeletonFileSize = 256 * 1024 * 1024

// Decode reads a skeleton document:
//
//	{"voxel_size": 4, "ball_radius": 10,
//	 "segments": [{"voxels": [[x,y,z], ...], "polyline": [[x,y,z], ...]}]}
//
// Positions are lattice indices. Computed fields (leaf_voxels,
// real_polyline) are ignored on input.
func Decode(r io.Reader) (*Skeleton, error) {
	var sk Skeleton
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sk); err != nil {
		return nil, fmt.Errorf("failed to parse skeleton JSON: %w", err)
	}
	if err := sk.Validate(); err != nil {
		return nil, fmt.Errorf("invalid skeleton: %w", err)
	}
	for _, s := range sk.Segments {
		s.LeafVoxels = nil
		s.RealPolyline = nil
	}
	return &sk, nil
}

// Load reads and decodes a skeleton file through fsys.
func Load(fsys fsutil.FileSystem, path string) (*Skeleton, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("skeleton file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat skeleton file: %w", err)
	}
	if info.Size() > maxSkeletonFileSize {
		return nil, fmt.Errorf("skeleton file too large: %d bytes (max %d)", info.Size(), maxSkeletonFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read skeleton file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Validate checks the fields the loader cannot default.
func (sk *Skeleton) Validate() error {
	if sk.VoxelSize <= 0 {
		return fmt.Errorf("voxel_size must be positive, got %g", sk.VoxelSize)
	}
	if sk.BallRadius < 0 {
		return fmt.Errorf("ball_radius must be non-negative, got %g", sk.BallRadius)
	}
	for i, s := range sk.Segments {
		if s == nil {
			return fmt.Errorf("segment %d is null", i)
		}
		if s.Voxels == nil {
			s.Voxels = make(voxel.Set)
		}
	}
	return nil
}
