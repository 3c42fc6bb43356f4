package seat

import (
	"image"
	"math"
)

// NormalizedRect is a rectangle in fractions of the screenshot size, relative
// to a seat origin.
type NormalizedRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is a rectangle in (fractional) pixels.
type Rect struct {
	X, Y, W, H float64
}

// snap absorbs float error from products like 5*0.074*1000 before truncating.
const snap = 1e-6

func trunc(v float64) int { return int(math.Floor(v + snap)) }

// Bounds truncates r to whole pixels the way a canvas read does.
func (r Rect) Bounds() image.Rectangle {
	x, y := trunc(r.X), trunc(r.Y)
	return image.Rect(x, y, x+trunc(r.W), y+trunc(r.H))
}

// Valid reports whether r covers at least one whole pixel.
func (r Rect) Valid() bool {
	return trunc(r.W) > 0 && trunc(r.H) > 0
}

// Trim shrinks r by ratio of its size on every side.
func (r Rect) Trim(ratio float64) Rect {
	return Rect{
		X: r.X + r.W*ratio,
		Y: r.Y + r.H*ratio,
		W: r.W * (1 - ratio*2),
		H: r.H * (1 - ratio*2),
	}
}

// Layout fixes where the eight seat cards render in a lobby screenshot.
type Layout struct {
	SlotCount int
	StartX    float64
	StartY    float64
	GapX      float64
	GapY      float64

	// CropRatio is trimmed from each side of the icon and nameplate.
	CropRatio float64
	// PlateHeightRatio keeps only the nickname line of the trimmed plate.
	PlateHeightRatio float64

	Icon  NormalizedRect
	Plate NormalizedRect
	Ready NormalizedRect
}

var DefaultLayout = Layout{
	SlotCount:        8,
	StartX:           0.767,
	StartY:           0.165,
	GapX:             0,
	GapY:             0.0740,
	CropRatio:        0.15,
	PlateHeightRatio: 0.55,
	Icon:             NormalizedRect{X: 0.0, Y: 0.0, W: 0.032, H: 0.06},
	Plate:            NormalizedRect{X: 0.032, Y: 0.0, W: 0.032, H: 0.06},
	Ready:            NormalizedRect{X: 0.083, Y: 0.022, W: 0.048, H: 0.038},
}

// Regions are the pixel rectangles of one seat.
type Regions struct {
	Origin Rect
	Icon   Rect
	Plate  Rect
	Ready  Rect
	Card   Rect
}

// Origin is the top-left corner of seat index in a w×h screenshot.
func (l Layout) Origin(index, w, h int) (x, y float64) {
	W, H := float64(w), float64(h)
	x = l.StartX*W + float64(index)*l.GapX*W
	y = l.StartY*H + float64(index)*l.GapY*H
	return x, y
}

func (l Layout) place(n NormalizedRect, ox, oy, W, H float64) Rect {
	return Rect{X: ox + n.X*W, Y: oy + n.Y*H, W: n.W * W, H: n.H * H}
}

// Regions computes the sub-rectangles of seat index in a w×h screenshot.
func (l Layout) Regions(index, w, h int) Regions {
	W, H := float64(w), float64(h)
	ox, oy := l.Origin(index, w, h)
	icon := l.place(l.Icon, ox, oy, W, H)
	return Regions{
		Origin: Rect{X: ox, Y: oy},
		Icon:   icon,
		Plate:  l.place(l.Plate, ox, oy, W, H),
		Ready:  l.place(l.Ready, ox, oy, W, H),
		Card:   Rect{X: ox, Y: oy - icon.H*0.3, W: 0.16 * W, H: icon.H * 1.3},
	}
}

// nameplate is the trimmed nickname strip of a plate region.
func (l Layout) nameplate(plate Rect) Rect {
	r := plate.Trim(l.CropRatio)
	r.H *= l.PlateHeightRatio
	return r
}
