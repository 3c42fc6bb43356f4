// Package imagehash computes perceptual fingerprints (average, difference and
// DCT hashes) over RGBA pixel regions and compares them by Hamming distance.
package imagehash

import (
	"math/bits"
	"strings"
)

// MaxDistance is returned by Distance when two hashes cannot be compared.
// It is larger than any threshold the matcher uses.
const MaxDistance = 1 << 16

// Hash is a fixed-length bit vector. Bit 0 is the first sample in row-major
// order and is stored in the most significant bit of the first word.
type Hash struct {
	words []uint64
	n     int
}

func newHash(n int) Hash {
	return Hash{words: make([]uint64, (n+63)/64), n: n}
}

// FromBits builds a hash from individual bits.
func FromBits(b []bool) Hash {
	h := newHash(len(b))
	for i, on := range b {
		if on {
			h.set(i)
		}
	}
	return h
}

func (h Hash) set(i int) {
	h.words[i/64] |= 1 << (63 - uint(i%64))
}

// Len is the number of bits in the hash.
func (h Hash) Len() int { return h.n }

// IsZero reports whether the hash carries no bits at all.
func (h Hash) IsZero() bool { return h.n == 0 }

// Bit returns bit i.
func (h Hash) Bit(i int) bool {
	if i < 0 || i >= h.n {
		return false
	}
	return h.words[i/64]&(1<<(63-uint(i%64))) != 0
}

// OnesCount returns the number of set bits.
func (h Hash) OnesCount() int {
	c := 0
	for _, w := range h.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// String renders the hash as lowercase hex, one digit per four bits.
func (h Hash) String() string {
	if h.n == 0 {
		return ""
	}
	const hexdigits = "0123456789abcdef"
	var sb strings.Builder
	digits := (h.n + 3) / 4
	for d := 0; d < digits; d++ {
		w := h.words[d/16]
		shift := 60 - uint(d%16)*4
		sb.WriteByte(hexdigits[(w>>shift)&0xf])
	}
	return sb.String()
}

// Distance is the Hamming distance between a and b. Hashes of different
// lengths, or empty hashes, are never similar and yield MaxDistance.
func Distance(a, b Hash) int {
	if a.n == 0 || a.n != b.n {
		return MaxDistance
	}
	d := 0
	for i := range a.words {
		d += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return d
}
