package seat_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
	"github.com/DoyleJ11/versus-room/internal/seat"
	"github.com/DoyleJ11/versus-room/internal/seat/seattest"
)

func analyzer(t *testing.T) *seat.Analyzer {
	t.Helper()
	ref, err := seat.ReadyReference()
	require.NoError(t, err)
	require.Equal(t, 240, ref.Len())
	return seat.NewAnalyzer(ref)
}

func TestRegionsAt1000(t *testing.T) {
	reg := seat.DefaultLayout.Regions(5, 1000, 1000)

	assert.Equal(t, image.Rect(767, 535, 799, 595), reg.Icon.Bounds())
	assert.Equal(t, image.Rect(799, 535, 831, 595), reg.Plate.Bounds())
	assert.Equal(t, image.Rect(850, 557, 898, 595), reg.Ready.Bounds())
}

func TestRectTrim(t *testing.T) {
	r := seat.Rect{X: 100, Y: 100, W: 40, H: 20}.Trim(0.25)
	assert.Equal(t, seat.Rect{X: 110, Y: 105, W: 20, H: 10}, r)
	assert.False(t, seat.Rect{W: 0.5, H: 10}.Valid())
}

func TestEmptySeats(t *testing.T) {
	a := analyzer(t)
	shot := seattest.New(1000, 1000)

	fps := a.AnalyzeAll(shot.Img)
	require.Len(t, fps, 8)
	for i, fp := range fps {
		assert.Equal(t, i, fp.Slot)
		assert.True(t, fp.Empty, "slot %d", i)
		assert.True(t, fp.IconAHash.IsZero())
		assert.True(t, fp.PlatePHash.IsZero())
		assert.Equal(t, -1, fp.ReadyDistance)
	}
}

func TestOccupiedSeat(t *testing.T) {
	a := analyzer(t)
	shot := seattest.New(1000, 1000).Seat(2, seattest.Player{Icon: 7, Name: 9})

	fp := a.Analyze(shot.Img, 2)
	require.False(t, fp.Empty)
	assert.Equal(t, 256, fp.IconAHash.Len())
	assert.Equal(t, 240, fp.IconDHash.Len())
	assert.Equal(t, 64, fp.PlatePHash.Len())
	assert.False(t, fp.Ready)
	assert.GreaterOrEqual(t, fp.ReadyDistance, 0)
	require.NotNil(t, fp.Thumbnail)
	assert.Equal(t, 160, fp.Thumbnail.Bounds().Dx())

	assert.True(t, a.Analyze(shot.Img, 3).Empty)
}

func TestSameCardAcrossSlots(t *testing.T) {
	a := analyzer(t)
	p := seattest.Player{Icon: 11, Name: 12}
	shot := seattest.New(1000, 1000).Seat(0, p).Seat(6, p)

	x, y := a.Analyze(shot.Img, 0), a.Analyze(shot.Img, 6)
	assert.Zero(t, imagehash.Distance(x.IconAHash, y.IconAHash))
	assert.Zero(t, imagehash.Distance(x.IconDHash, y.IconDHash))
	assert.Zero(t, imagehash.Distance(x.PlatePHash, y.PlatePHash))
}

func TestReadyBadge(t *testing.T) {
	a := analyzer(t)
	shot := seattest.New(1000, 1000).
		Seat(1, seattest.Player{Icon: 3, Name: 4, Ready: true}).
		Seat(4, seattest.Player{Icon: 3, Name: 4})

	ready, idle := a.Analyze(shot.Img, 1), a.Analyze(shot.Img, 4)
	assert.True(t, ready.Ready, "distance %d", ready.ReadyDistance)
	assert.LessOrEqual(t, ready.ReadyDistance, seat.ReadyMaxDistance)
	assert.False(t, idle.Ready, "distance %d", idle.ReadyDistance)

	// Binarization inverts with the plate, so the nickname reads the same.
	assert.Zero(t, imagehash.Distance(ready.PlatePHash, idle.PlatePHash))
}

func TestNoReference(t *testing.T) {
	a := seat.NewAnalyzer(imagehash.Hash{})
	shot := seattest.New(1000, 1000).Seat(0, seattest.Player{Icon: 1, Name: 1, Ready: true})

	fp := a.Analyze(shot.Img, 0)
	assert.False(t, fp.Ready)
	assert.Equal(t, -1, fp.ReadyDistance)
}

func TestTinyScreenshot(t *testing.T) {
	a := analyzer(t)
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for _, fp := range a.AnalyzeAll(img) {
		assert.True(t, fp.Empty)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		fill func(x, y int) color.RGBA
		want bool
	}{
		{"dark uniform", func(int, int) color.RGBA { return color.RGBA{20, 20, 20, 255} }, true},
		{"bright uniform", func(int, int) color.RGBA { return color.RGBA{200, 200, 200, 255} }, true},
		{"dim texture", func(x, _ int) color.RGBA {
			v := uint8(10 + 40*(x%2))
			return color.RGBA{v, v, v, 255}
		}, true},
		{"checker", func(x, y int) color.RGBA {
			if (x+y)%2 == 0 {
				return color.RGBA{255, 255, 255, 255}
			}
			return color.RGBA{0, 0, 0, 255}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 8, 8))
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					img.SetRGBA(x, y, tt.fill(x, y))
				}
			}
			assert.Equal(t, tt.want, seat.IsEmpty(img))
		})
	}
	assert.True(t, seat.IsEmpty(image.NewRGBA(image.Rectangle{})))
}

func TestBinarize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, color.RGBA{10, 10, 10, 255})
	img.SetRGBA(1, 0, color.RGBA{240, 240, 240, 255})
	img.SetRGBA(2, 0, color.RGBA{240, 100, 240, 255})

	idle := seat.Binarize(img, false)
	assert.Equal(t, []uint8{0, 0, 0, 255, 255, 255, 255, 255, 0, 0, 0, 255}, idle.Pix)

	ready := seat.Binarize(img, true)
	assert.Equal(t, []uint8{255, 255, 255, 255, 0, 0, 0, 255, 0, 0, 0, 255}, ready.Pix)
}
