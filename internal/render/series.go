package render

import (
	"fmt"

	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// labelColors keeps organ colours stable between the HTML and PNG views.
var labelColors = map[organ.Label]string{
	organ.LabelStem:       "#8c564b",
	organ.LabelMatureLeaf: "#2ca02c",
	organ.LabelCornetLeaf: "#bcbd22",
	organ.LabelUnknown:    "#7f7f7f",
}

// organSeries is one organ flattened into world coordinates.
type organSeries struct {
	name   string
	label  organ.Label
	points [][3]float64
}

// maxPointsPerOrgan caps the points drawn per organ; larger organs are
// subsampled with a fixed stride so output is deterministic.
const maxPointsPerOrgan = 20000

func buildSeries(seg *organ.Segmentation) []organSeries {
	var out []organSeries
	leafIndex := 0
	for _, o := range seg.Organs {
		name := string(o.Label)
		if o.Label.IsLeaf() {
			leafIndex++
			name = fmt.Sprintf("%s %d", o.Label, leafIndex)
		}
		out = append(out, organSeries{
			name:   name,
			label:  o.Label,
			points: worldPoints(o.Voxels(), seg.VoxelSize),
		})
	}
	return out
}

func worldPoints(s voxel.Set, voxelSize float64) [][3]float64 {
	sorted := s.Sorted()
	stride := 1
	if len(sorted) > maxPointsPerOrgan {
		stride = (len(sorted) + maxPointsPerOrgan - 1) / maxPointsPerOrgan
	}
	out := make([][3]float64, 0, len(sorted)/stride+1)
	for i := 0; i < len(sorted); i += stride {
		x, y, z := sorted[i].World(voxelSize)
		out = append(out, [3]float64{x, y, z})
	}
	return out
}
