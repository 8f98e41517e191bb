package render

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/organ"
)

// Default PNG size.
const (
	DefaultPNGWidth  = 8 * vg.Inch
	DefaultPNGHeight = 10 * vg.Inch
)

// WritePNG draws the front (X-Z) projection of every organ as a PNG.
func WritePNG(w io.Writer, title string, seg *organ.Segmentation, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"
	p.Legend.Top = true

	for _, s := range buildSeries(seg) {
		if len(s.points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.points))
		for i, pt := range s.points {
			xys[i] = plotter.XY{X: pt[0], Y: pt[2]}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("failed to build scatter for %s: %w", s.name, err)
		}
		sc.GlyphStyle.Color = hexColor(labelColors[s.label])
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
		p.Legend.Add(s.name, sc)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG writes the projection to path through fsys.
func SavePNG(fsys fsutil.FileSystem, path, title string, seg *organ.Segmentation) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePNG(f, title, seg, DefaultPNGWidth, DefaultPNGHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// hexColor parses "#rrggbb"; anything else is black.
func hexColor(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
