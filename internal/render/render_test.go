package render

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/config"
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/phenotype"
	"github.com/banshee-data/phenomenal/internal/segmentation"
	"github.com/banshee-data/phenomenal/internal/testutil"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

func testSegmentation(t *testing.T) *organ.Segmentation {
	t.Helper()
	monitoring.SetLogger(nil)
	plant := testutil.NewPlant(10, 30).
		AddLeaf(15, 10, testutil.PlusX).
		AddLeaf(28, 8, testutil.MinusY)
	seg, err := segmentation.NewSegmenter(segmentation.DefaultParams()).
		Segment(context.Background(), plant.Skeleton(), plant.Graph(t))
	require.NoError(t, err)
	return seg
}

func TestWriteHTML(t *testing.T) {
	seg := testSegmentation(t)
	pf := phenotype.Measure(seg, config.DefaultTuningConfig().GetClosestNodesDistance())

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "plant 7", seg, &pf))
	out := buf.String()
	assert.Contains(t, out, "plant 7")
	assert.Contains(t, out, "front view")
	assert.Contains(t, out, "stem")
	assert.Contains(t, out, "Leaf lengths")
	assert.Contains(t, out, labelColors[organ.LabelStem])
}

func TestWriteHTML_WithoutFeatures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "bare", testSegmentation(t), nil))
	assert.NotContains(t, buf.String(), "Leaf lengths")
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, "plant", testSegmentation(t), 2*DefaultPNGWidth/8, 2*DefaultPNGHeight/10))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output is a PNG")
}

func TestSave_MemoryFileSystem(t *testing.T) {
	seg := testSegmentation(t)
	fsys := fsutil.NewMemoryFileSystem()

	require.NoError(t, SaveHTML(fsys, "out/report.html", "plant", seg, nil))
	require.NoError(t, SavePNG(fsys, "out/side.png", "plant", seg))
	assert.Equal(t, []string{"out/report.html", "out/side.png"}, fsys.Names())

	html, err := fsys.ReadFile("out/report.html")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "<html"))
}

func TestBuildSeries(t *testing.T) {
	seg := testSegmentation(t)
	series := buildSeries(seg)
	require.Len(t, series, len(seg.Organs))
	assert.Equal(t, "unknown", series[0].name)
	assert.Equal(t, "stem", series[1].name)
	assert.True(t, strings.HasSuffix(series[2].name, " 1"))
	assert.True(t, strings.HasSuffix(series[3].name, " 2"))
}

func TestWorldPoints_Subsamples(t *testing.T) {
	s := make(voxel.Set)
	for x := int64(0); x < maxPointsPerOrgan+10; x++ {
		s.Add(voxel.Position{X: x})
	}
	pts := worldPoints(s, 2)
	assert.LessOrEqual(t, len(pts), maxPointsPerOrgan)
	assert.Equal(t, [3]float64{0, 0, 0}, pts[0])
	assert.Equal(t, [3]float64{4, 0, 0}, pts[1])
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, hexColor("#2ca02c"))
	assert.Equal(t, color.Black, hexColor("green"))
	assert.Equal(t, color.Black, hexColor("#zzzzzz"))
}
