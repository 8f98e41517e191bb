// Package geometry provides the spatial queries used around organ
// segmentation: principal-axis line fits and plane interception of voxel
// sets along a polyline.
package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/phenomenal/internal/voxel"
)

// degenerateEpsilon is the smallest principal variance accepted for a line fit.
const degenerateEpsilon = 1e-9

// ErrDegenerate is returned when the points do not define a direction.
var ErrDegenerate = errors.New("geometry: degenerate point set")

// Line is a 3D line through Origin along the unit vector Direction.
type Line struct {
	Origin    [3]float64
	Direction [3]float64
}

// At returns the point of the line at height z. The second result is false
// when the line is horizontal.
func (l Line) At(z float64) ([3]float64, bool) {
	if math.Abs(l.Direction[2]) < degenerateEpsilon {
		return l.Origin, false
	}
	t := (z - l.Origin[2]) / l.Direction[2]
	return [3]float64{
		l.Origin[0] + t*l.Direction[0],
		l.Origin[1] + t*l.Direction[1],
		z,
	}, true
}

// FitLine fits a line to the points by principal component analysis: the
// origin is the centroid and the direction the eigenvector of the largest
// covariance eigenvalue, oriented upward (non-negative Z).
func FitLine(points [][3]float64) (Line, error) {
	n := len(points)
	if n < 2 {
		return Line{}, ErrDegenerate
	}

	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		data.SetRow(i, p[:])
	}

	var line Line
	col := make([]float64, n)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, data)
		line.Origin[j] = stat.Mean(col, nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return Line{}, ErrDegenerate
	}
	values := eig.Values(nil)
	if values[len(values)-1] < degenerateEpsilon {
		return Line{}, ErrDegenerate
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	dir := mat.Col(nil, len(values)-1, &vectors)
	floats.Scale(1/floats.Norm(dir, 2), dir)
	if dir[2] < 0 {
		floats.Scale(-1, dir)
	}
	copy(line.Direction[:], dir)
	return line, nil
}

// HorizontalDistance returns the distance between two points projected on
// the XY plane.
func HorizontalDistance(a, b [3]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// TiltDegrees returns the angle between the vector and the +Z axis.
func TiltDegrees(v [3]float64) float64 {
	return math.Atan2(math.Hypot(v[0], v[1]), v[2]) * 180 / math.Pi
}

// ToWorld converts lattice positions into world coordinates.
func ToWorld(positions []voxel.Position, voxelSize float64) [][3]float64 {
	out := make([][3]float64, len(positions))
	for i, p := range positions {
		x, y, z := p.World(voxelSize)
		out[i] = [3]float64{x, y, z}
	}
	return out
}
