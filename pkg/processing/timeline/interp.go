package timeline

import (
	"errors"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/interp"
)

var ErrNoPoints = errors.New("no points to interpolate")

type point struct {
	x, y float64
}

// prepare sorts the points by x, drops NaN values and keeps the first of
// duplicate x values.
func prepare(xs, ys []float64) []point {
	pts := make([]point, 0, len(xs))
	for i := range min(len(xs), len(ys)) {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, point{xs[i], ys[i]})
	}
	slices.SortStableFunc(pts, func(a, b point) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		default:
			return 0
		}
	})
	return slices.CompactFunc(pts, func(a, b point) bool { return a.x == b.x })
}

func split(pts []point) (xs, ys []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.x, p.y
	}
	return xs, ys
}

// NewLinear returns a linear interpolation of the points.
// Values outside the covered range are clamped to the boundary values.
// A single point yields a constant.
func NewLinear(xs, ys []float64) (func(float64) float64, error) {
	pts := prepare(xs, ys)
	switch len(pts) {
	case 0:
		return nil, ErrNoPoints
	case 1:
		v := pts[0].y
		return func(float64) float64 { return v }, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(split(pts)); err != nil {
		return nil, err
	}
	return pl.Predict, nil
}

// NewStep returns a right-continuous step function: the value at x is the
// value of the last point at or before x. Before the first point the first
// value is used.
func NewStep[T any](xs []float64, ys []T) (func(float64) T, error) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return nil, ErrNoPoints
	}
	idx := make([]int, 0, n)
	for i := range n {
		if !math.IsNaN(xs[i]) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, ErrNoPoints
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case xs[a] < xs[b]:
			return -1
		case xs[a] > xs[b]:
			return 1
		default:
			return 0
		}
	})
	// duplicate x: first one wins, same as prepare
	sx := make([]float64, 0, len(idx))
	sy := make([]T, 0, len(idx))
	for _, i := range idx {
		if len(sx) > 0 && sx[len(sx)-1] == xs[i] {
			continue
		}
		sx = append(sx, xs[i])
		sy = append(sy, ys[i])
	}
	return func(x float64) T {
		i := sort.Search(len(sx), func(i int) bool { return sx[i] > x }) - 1
		return sy[max(i, 0)]
	}, nil
}
