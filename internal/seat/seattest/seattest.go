// Package seattest paints synthetic lobby screenshots for tests.
package seattest

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
	"github.com/DoyleJ11/versus-room/internal/seat"
)

var (
	Background = color.RGBA{20, 20, 20, 255}
	DarkPlate  = color.RGBA{40, 40, 40, 255}
	LightPlate = color.RGBA{230, 230, 230, 255}
	TextLight  = color.RGBA{250, 250, 250, 255}
	TextDark   = color.RGBA{15, 15, 15, 255}
)

// Player describes what to paint into one seat.
type Player struct {
	Icon  int64 // seed for the icon pattern
	Name  int64 // seed for the nameplate text
	Ready bool
}

// Screenshot is a w×h lobby image filled with the empty-seat background.
type Screenshot struct {
	Img    *image.RGBA
	Layout seat.Layout
}

func New(w, h int) *Screenshot {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{Background}, image.Point{}, draw.Src)
	return &Screenshot{Img: img, Layout: seat.DefaultLayout}
}

// Seat paints p into slot index.
func (s *Screenshot) Seat(index int, p Player) *Screenshot {
	b := s.Img.Bounds()
	reg := s.Layout.Regions(index, b.Dx(), b.Dy())

	blocks(s.Img, reg.Icon.Bounds(), 4, rand.New(rand.NewSource(p.Icon)), func(r *rand.Rand) color.RGBA {
		return color.RGBA{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), 255}
	})

	plate, text := DarkPlate, TextLight
	if p.Ready {
		plate, text = LightPlate, TextDark
	}
	pr := reg.Plate.Bounds()
	draw.Draw(s.Img, pr, &image.Uniform{plate}, image.Point{}, draw.Src)
	name := rand.New(rand.NewSource(p.Name))
	blocks(s.Img, pr, 3, name, func(r *rand.Rand) color.RGBA {
		if r.Intn(2) == 0 {
			return text
		}
		return plate
	})

	if p.Ready {
		rr := reg.Ready.Bounds()
		badge := imagehash.Resize(Badge(), rr.Dx(), rr.Dy())
		draw.Draw(s.Img, rr, badge, image.Point{}, draw.Src)
	}
	return s
}

// blocks tiles r with size×size cells coloured by pick.
func blocks(img *image.RGBA, r image.Rectangle, size int, rnd *rand.Rand, pick func(*rand.Rand) color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y += size {
		for x := r.Min.X; x < r.Max.X; x += size {
			cell := image.Rect(x, y, x+size, y+size).Intersect(r)
			draw.Draw(img, cell, &image.Uniform{pick(rnd)}, image.Point{}, draw.Src)
		}
	}
}

// Badge decodes the embedded ready badge.
func Badge() image.Image {
	img, err := png.Decode(bytes.NewReader(seat.ReadyBadgePNG()))
	if err != nil {
		panic(err)
	}
	return img
}

// PNG encodes the screenshot.
func (s *Screenshot) PNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
