package imagehash

import (
	"image"
	"math"
	"slices"
)

const (
	phashSize  = 32
	phashBlock = 8
	phashBits  = 64
)

// PHash resamples img to 32×32 and hashes its low DCT frequencies.
func PHash(img image.Image) Hash {
	return PHashGrid(GridOf(Resize(img, phashSize, phashSize)))
}

// PHashGrid hashes a square grid: 2-D DCT, the top-left 8×8 coefficients
// without the DC term, each compared against their median. Coefficients equal
// to the median are 0. The 63 bits are zero-padded to 64.
func PHashGrid(g Grid) Hash {
	n := g.W
	if n < phashBlock || g.H != n {
		return Hash{}
	}
	coef := dct2D(g)

	vals := make([]float64, 0, phashBlock*phashBlock-1)
	for v := 0; v < phashBlock; v++ {
		for u := 0; u < phashBlock; u++ {
			if u == 0 && v == 0 {
				continue
			}
			vals = append(vals, coef[v*n+u])
		}
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	median := sorted[len(sorted)/2]

	h := newHash(phashBits)
	for i, c := range vals {
		if c > median {
			h.set(i)
		}
	}
	return h
}

// dct2D runs the orthonormal DCT-II along rows then columns.
func dct2D(g Grid) []float64 {
	n := g.W
	table := cosTable(n)

	rows := make([]float64, n*n)
	for y := 0; y < n; y++ {
		dct1D(g.V[y*n:(y+1)*n], rows[y*n:(y+1)*n], table)
	}

	out := make([]float64, n*n)
	col := make([]float64, n)
	res := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y*n+x]
		}
		dct1D(col, res, table)
		for y := 0; y < n; y++ {
			out[y*n+x] = res[y]
		}
	}
	return out
}

func cosTable(n int) [][]float64 {
	f := math.Pi / float64(n)
	t := make([][]float64, n)
	for u := range t {
		t[u] = make([]float64, n)
		for x := range t[u] {
			t[u][x] = math.Cos((float64(x) + 0.5) * float64(u) * f)
		}
	}
	return t
}

func dct1D(in, out []float64, table [][]float64) {
	n := len(in)
	c0 := math.Sqrt(1 / float64(n))
	c := math.Sqrt(2 / float64(n))
	for u := 0; u < n; u++ {
		var sum float64
		for x, v := range in {
			sum += v * table[u][x]
		}
		if u == 0 {
			out[u] = c0 * sum
		} else {
			out[u] = c * sum
		}
	}
}
