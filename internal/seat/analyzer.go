// Package seat cuts the eight seat cards out of a lobby screenshot and
// fingerprints each one: icon hashes, ready-badge state and a nameplate pHash.
package seat

import (
	"image"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
)

const (
	iconSize  = 16
	badgeSize = 16

	emptyVariance = 50
	emptyMean     = 40

	// ReadyMaxDistance is deliberately loose; the badge is fixed but its
	// rendering varies.
	ReadyMaxDistance = 50

	darkTextMax  = 60
	lightTextMin = 210
)

// Fingerprint is one seat of one screenshot. It is never mutated after Analyze.
type Fingerprint struct {
	Slot  int
	Empty bool

	IconAHash  imagehash.Hash
	IconDHash  imagehash.Hash
	PlatePHash imagehash.Hash

	Ready bool
	// ReadyDistance is -1 when no badge comparison was possible.
	ReadyDistance int

	// Thumbnail is a display snippet of the card; matching ignores it.
	Thumbnail *image.RGBA
}

type Analyzer struct {
	Layout Layout
	// Reference is the ready-badge dHash. A zero hash disables ready
	// detection and every seat is read as not ready.
	Reference imagehash.Hash
}

func NewAnalyzer(ref imagehash.Hash) *Analyzer {
	return &Analyzer{Layout: DefaultLayout, Reference: ref}
}

// AnalyzeAll fingerprints every seat of img.
func (a *Analyzer) AnalyzeAll(img *image.RGBA) []Fingerprint {
	out := make([]Fingerprint, a.Layout.SlotCount)
	for i := range out {
		out[i] = a.Analyze(img, i)
	}
	return out
}

// Analyze fingerprints seat index of img. Degenerate regions never error;
// the seat is reported empty or the sub-feature is left unset.
func (a *Analyzer) Analyze(img *image.RGBA, index int) Fingerprint {
	fp := Fingerprint{Slot: index, ReadyDistance: -1}
	b := img.Bounds()
	reg := a.Layout.Regions(index, b.Dx(), b.Dy())

	if !reg.Icon.Valid() {
		fp.Empty = true
		return fp
	}
	raw := imagehash.Crop(img, offset(reg.Icon.Bounds(), b))
	if IsEmpty(raw) {
		fp.Empty = true
		return fp
	}

	if crop := reg.Icon.Trim(a.Layout.CropRatio); crop.Valid() {
		patch := imagehash.GridOf(imagehash.Resize(imagehash.Crop(img, offset(crop.Bounds(), b)), iconSize, iconSize))
		fp.IconAHash = imagehash.AHashGrid(patch)
		fp.IconDHash = imagehash.DHashGrid(patch)
	}

	if reg.Card.Valid() {
		fp.Thumbnail = imagehash.Crop(img, offset(reg.Card.Bounds(), b))
	}

	if !a.Reference.IsZero() && reg.Ready.Valid() {
		badge := imagehash.Crop(img, offset(reg.Ready.Bounds(), b))
		fp.ReadyDistance = imagehash.Distance(BadgeHash(badge), a.Reference)
		fp.Ready = fp.ReadyDistance <= ReadyMaxDistance
	}

	if plate := a.Layout.nameplate(reg.Plate); plate.Valid() {
		mask := Binarize(imagehash.Crop(img, offset(plate.Bounds(), b)), fp.Ready)
		fp.PlatePHash = imagehash.PHash(mask)
	}
	return fp
}

func offset(r, bounds image.Rectangle) image.Rectangle {
	return r.Add(bounds.Min)
}

// IsEmpty reports whether an icon region is a near-uniform or dark panel.
func IsEmpty(icon *image.RGBA) bool {
	n := len(icon.Pix) / 4
	if n == 0 {
		return true
	}
	var sum, sq float64
	for i := 0; i < len(icon.Pix); i += 4 {
		l := imagehash.Luma(icon.Pix[i], icon.Pix[i+1], icon.Pix[i+2])
		sum += l
		sq += l * l
	}
	mean := sum / float64(n)
	variance := sq/float64(n) - mean*mean
	return variance < emptyVariance || mean < emptyMean
}

// Binarize extracts nickname text as white on black. A ready plate is light,
// so dark pixels are text; otherwise light pixels are.
func Binarize(plate *image.RGBA, ready bool) *image.RGBA {
	out := image.NewRGBA(plate.Bounds())
	for i := 0; i < len(plate.Pix); i += 4 {
		r, g, b := plate.Pix[i], plate.Pix[i+1], plate.Pix[i+2]
		var text bool
		if ready {
			text = r < darkTextMax && g < darkTextMax && b < darkTextMax
		} else {
			text = r > lightTextMin && g > lightTextMin && b > lightTextMin
		}
		var v uint8
		if text {
			v = 255
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = v, v, v, 255
	}
	return out
}
