package imagehash

import (
	"image"

	"golang.org/x/image/draw"
)

// Luma weights an RGB sample with the Rec. 601 coefficients.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Grid holds one luma sample per pixel in row-major order.
type Grid struct {
	W, H int
	V    []float64
}

func (g Grid) at(x, y int) float64 { return g.V[y*g.W+x] }

// GridOf converts img to luma samples over its bounds.
func GridOf(img *image.RGBA) Grid {
	b := img.Bounds()
	g := Grid{W: b.Dx(), H: b.Dy(), V: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < g.H; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+g.W*4]
		for x := 0; x < g.W; x++ {
			g.V[y*g.W+x] = Luma(row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return g
}

// Resize bilinearly resamples src onto a new w×h RGBA image. Output samples
// are 8-bit so that a uniform input stays exactly uniform.
func Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src == nil || src.Bounds().Empty() {
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Crop copies r out of src. Pixels of r outside src read as transparent black.
func Crop(src image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}
