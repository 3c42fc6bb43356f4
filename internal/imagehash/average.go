package imagehash

import "image"

// AHash resamples img to n×n and thresholds every sample against the mean.
func AHash(img image.Image, n int) Hash {
	return AHashGrid(GridOf(Resize(img, n, n)))
}

// AHashGrid sets a bit for every sample at or above the grid mean.
func AHashGrid(g Grid) Hash {
	if len(g.V) == 0 {
		return Hash{}
	}
	var sum float64
	for _, v := range g.V {
		sum += v
	}
	mean := sum / float64(len(g.V))

	h := newHash(len(g.V))
	for i, v := range g.V {
		if v >= mean {
			h.set(i)
		}
	}
	return h
}

// DHash resamples img to (n+1)×n and hashes horizontal gradients, n×n bits.
func DHash(img image.Image, n int) Hash {
	return DHashGrid(GridOf(Resize(img, n+1, n)))
}

// DHashGrid sets a bit where a sample is darker than its right neighbour.
// The last column has no neighbour and contributes nothing, so a w×h grid
// yields (w-1)×h bits.
func DHashGrid(g Grid) Hash {
	if g.W < 2 || g.H < 1 {
		return Hash{}
	}
	h := newHash((g.W - 1) * g.H)
	i := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W-1; x++ {
			if g.at(x, y) < g.at(x+1, y) {
				h.set(i)
			}
			i++
		}
	}
	return h
}
