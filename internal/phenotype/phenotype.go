// Package phenotype derives plant measurements from a segmentation: leaf
// counts, leaf lengths and widths, stem height and organ volumes.
package phenotype

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Keys written into organ.Info by Measure.
const (
	InfoVoxelCount      = "voxel_count"
	InfoVolume          = "volume"
	InfoLength          = "length"
	InfoHeight          = "height"
	InfoInsertionHeight = "insertion_height"
	InfoAzimuth         = "azimuth"
	InfoWidth           = "width"
)

// OrganFeatures captures the measurements of one organ. Lengths are in
// world units, angles in degrees.
type OrganFeatures struct {
	Index      int // position in Segmentation.Organs
	Label      organ.Label
	VoxelCount int
	Volume     float64

	Length          float64 // real longest polyline (leaves), stem path (stem)
	Height          float64 // highest Z reached by any member polyline
	InsertionHeight float64 // Z where the real path leaves the stem
	Azimuth         float64 // direction of the leaf from insertion to tip, [0, 360)
	Width           float64 // widest plane slice along the longest polyline
}

// PlantFeatures aggregates a whole plant.
type PlantFeatures struct {
	LeafCount       int
	MatureLeafCount int
	CornetLeafCount int
	StemHeight      float64
	TotalLeafLength float64
	MeanLeafLength  float64
	MaxLeafLength   float64
	Organs          []OrganFeatures
}

// Measure computes plant and organ features and stores the organ ones in
// each organ's Info map. sliceDist is the plane half-thickness, in voxels,
// used for leaf widths.
func Measure(seg *organ.Segmentation, sliceDist float64) PlantFeatures {
	var pf PlantFeatures
	var leafLengths []float64

	for i, o := range seg.Organs {
		f := measureOrgan(i, o, seg.VoxelSize, sliceDist)
		pf.Organs = append(pf.Organs, f)
		store(o, f)

		switch o.Label {
		case organ.LabelStem:
			pf.StemHeight = f.Length
		case organ.LabelMatureLeaf:
			pf.MatureLeafCount++
			leafLengths = append(leafLengths, f.Length)
		case organ.LabelCornetLeaf:
			pf.CornetLeafCount++
			leafLengths = append(leafLengths, f.Length)
		}
	}

	pf.LeafCount = pf.MatureLeafCount + pf.CornetLeafCount
	if len(leafLengths) > 0 {
		pf.TotalLeafLength = floats.Sum(leafLengths)
		pf.MeanLeafLength = pf.TotalLeafLength / float64(len(leafLengths))
		pf.MaxLeafLength = floats.Max(leafLengths)
	}
	return pf
}

func measureOrgan(index int, o *organ.Organ, voxelSize, sliceDist float64) OrganFeatures {
	voxels := o.Voxels()
	f := OrganFeatures{
		Index:      index,
		Label:      o.Label,
		VoxelCount: voxels.Len(),
		Volume:     float64(voxels.Len()) * voxelSize * voxelSize * voxelSize,
	}
	if z, ok := o.HighestPolyline().MaxZ(); ok {
		f.Height = float64(z) * voxelSize
	}

	switch {
	case o.Label == organ.LabelStem:
		f.Length = o.LongestPolyline().Length() * voxelSize
	case o.Label.IsLeaf():
		path := o.RealLongestPolyline()
		f.Length = path.Length() * voxelSize
		if len(path) > 0 {
			f.InsertionHeight = float64(path[0].Z) * voxelSize
			f.Azimuth = azimuth(path)
		}
		f.Width = width(o, sliceDist) * voxelSize
	}
	return f
}

// azimuth is the horizontal heading from the first to the last point.
func azimuth(path voxel.Polyline) float64 {
	d := path[len(path)-1].Sub(path[0])
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	deg := math.Atan2(float64(d.Y), float64(d.X)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// width returns, in voxels, the widest slice of the organ measured inside
// each slicing plane. A slice spans twice its farthest in-plane offset from
// the path point plus the voxel itself. Path points outside the organ (the
// part of the path running up the stem) are skipped.
func width(o *organ.Organ, sliceDist float64) float64 {
	voxels := o.Voxels()
	path := o.LongestPolyline()
	nodes, planes := o.ClosestNodes(sliceDist)
	widths := make([]float64, 0, len(nodes))
	for i, slice := range nodes {
		if slice.Len() == 0 || !voxels.Has(path[i]) {
			continue
		}
		x, y, z := path[i].World(1)
		origin := []float64{x, y, z}
		var reach float64
		for p := range slice {
			v := p.Vec()
			floats.Sub(v, origin)
			along := floats.Dot(v, planes[i].Normal[:])
			sq := floats.Dot(v, v) - along*along
			reach = math.Max(reach, math.Sqrt(math.Max(sq, 0)))
		}
		widths = append(widths, 2*reach+1)
	}
	if len(widths) == 0 {
		return 0
	}
	return floats.Max(widths)
}

func store(o *organ.Organ, f OrganFeatures) {
	if o.Info == nil {
		o.Info = make(map[string]float64)
	}
	o.Info[InfoVoxelCount] = float64(f.VoxelCount)
	o.Info[InfoVolume] = f.Volume
	o.Info[InfoHeight] = f.Height
	o.Info[InfoLength] = f.Length
	if o.Label.IsLeaf() {
		o.Info[InfoInsertionHeight] = f.InsertionHeight
		o.Info[InfoAzimuth] = f.Azimuth
		o.Info[InfoWidth] = f.Width
	}
}
