package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// lowess computes a locally weighted scatterplot smoother: at each
// distinct x position, a linear regression weighted by the tricube kernel
// over the nearest frac*n points.  The returned coordinates are sorted by
// x and contain no duplicates.
func lowess(x, y []float64, frac float64) ([]float64, []float64) {

	n := len(x)
	if n == 0 {
		return nil, nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}

	k := int(frac * float64(n))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	w := make([]float64, n)
	var ox, oy []float64
	for i := 0; i < n; i++ {

		// Skip duplicate x positions; one smoothed value per
		// position.
		if i > 0 && xs[i] == xs[i-1] {
			continue
		}

		lo, hi := window(xs, i, k)
		dmax := math.Max(xs[i]-xs[lo], xs[hi-1]-xs[i])

		zero := dmax == 0
		for j := lo; j < hi; j++ {
			if zero {
				w[j] = 1
				continue
			}
			d := math.Abs(xs[j]-xs[i]) / dmax
			u := 1 - d*d*d
			if u < 0 {
				u = 0
			}
			w[j] = u * u * u
		}

		alpha, beta := stat.LinearRegression(xs[lo:hi], ys[lo:hi], w[lo:hi], false)
		v := alpha + beta*xs[i]
		if math.IsNaN(v) {
			// Degenerate window, fall back to the weighted mean.
			v = stat.Mean(ys[lo:hi], w[lo:hi])
		}

		ox = append(ox, xs[i])
		oy = append(oy, v)
	}

	return ox, oy
}

// window returns the half-open index range of the k points nearest to
// xs[i] in the sorted slice xs.
func window(xs []float64, i, k int) (int, int) {

	lo, hi := i, i+1
	for hi-lo < k {
		switch {
		case lo == 0:
			hi++
		case hi == len(xs):
			lo--
		case xs[i]-xs[lo-1] <= xs[hi]-xs[i]:
			lo--
		default:
			hi++
		}
	}
	return lo, hi
}
