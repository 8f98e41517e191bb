package segmentation

import (
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Classify labels a trimmed segment. Rules, in order:
//
//  1. len(RealPolyline) * voxelSize <= noiseLength: unknown
//  2. the full Polyline touches stemTop: cornet leaf
//  3. otherwise: mature leaf
func Classify(seg *skeleton.Segment, stemTop voxel.Set, voxelSize, noiseLength float64) organ.Label {
	if float64(len(seg.RealPolyline))*voxelSize <= noiseLength {
		return organ.LabelUnknown
	}
	if stemTop.ContainsAny(seg.Polyline) {
		return organ.LabelCornetLeaf
	}
	return organ.LabelMatureLeaf
}

type classified struct {
	unknown []*skeleton.Segment
	cornets []*organ.Organ
	matures []*organ.Organ
}

// classify labels every segment and narrows its voxels to the leaf it owns.
// Unknown segments are narrowed too so they never repeat stem voxels.
func (s *Segmenter) classify(sk *skeleton.Skeleton, stemTop voxel.Set) classified {
	var out classified
	for i, seg := range sk.Segments {
		label := Classify(seg, stemTop, sk.VoxelSize, s.params.NoiseLength)
		seg.Voxels = seg.LeafVoxels
		monitoring.Debugf("[segmentation] segment %d: %s (real path %d points)", i, label, len(seg.RealPolyline))

		switch label {
		case organ.LabelUnknown:
			out.unknown = append(out.unknown, seg)
		case organ.LabelCornetLeaf:
			o := organ.New(label)
			o.Segments = append(o.Segments, seg)
			out.cornets = append(out.cornets, o)
		default:
			o := organ.New(label)
			o.Segments = append(o.Segments, seg)
			out.matures = append(out.matures, o)
		}
	}
	return out
}
