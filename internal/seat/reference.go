package seat

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
)

//go:embed assets/ready_badge.png
var readyBadgePNG []byte

var readyReference = sync.OnceValues(func() (imagehash.Hash, error) {
	img, err := png.Decode(bytes.NewReader(readyBadgePNG))
	if err != nil {
		return imagehash.Hash{}, fmt.Errorf("decode ready badge: %w", err)
	}
	return BadgeHash(img), nil
})

// ReadyReference is the dHash of the embedded "ready" badge, decoded once.
func ReadyReference() (imagehash.Hash, error) {
	return readyReference()
}

// BadgeHash hashes a ready-badge region the same way for the reference and
// for every seat: 16×16 resample, difference hash.
func BadgeHash(img image.Image) imagehash.Hash {
	return imagehash.DHashGrid(imagehash.GridOf(imagehash.Resize(img, badgeSize, badgeSize)))
}

// ReadyBadgePNG returns the embedded badge image bytes.
func ReadyBadgePNG() []byte {
	return readyBadgePNG
}
