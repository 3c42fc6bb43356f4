// Package diff matches the seats of two lobby screenshots and reports who
// stayed, moved, left or entered.
package diff

import (
	"fmt"
	"sort"

	"github.com/DoyleJ11/versus-room/internal/imagehash"
	"github.com/DoyleJ11/versus-room/internal/seat"
)

// Thresholds bound the Hamming distances for a seat pair to match. Icon
// applies to aHash+dHash combined, Text to the nameplate pHash.
type Thresholds struct {
	Icon int `json:"icon"`
	Text int `json:"text"`
}

var DefaultThresholds = Thresholds{Icon: 120, Text: 24}

type Kind string

const (
	Stayed  Kind = "stayed"
	Moved   Kind = "moved"
	Left    Kind = "left"
	Entered Kind = "entered"
)

// Assignment pairs an old seat with a new seat. Old is nil for Entered and
// New is nil for Left. Slot numbers are zero-based.
type Assignment struct {
	Old  *int `json:"old"`
	New  *int `json:"new"`
	Kind Kind `json:"kind"`

	IconDistance int `json:"iconDistance"`
	TextDistance int `json:"textDistance"`
}

// Label is the one-based human form: "Slot 3" or "Slot 3 → 5".
func (a Assignment) Label() string {
	switch a.Kind {
	case Moved:
		return fmt.Sprintf("Slot %d → %d", *a.Old+1, *a.New+1)
	case Entered:
		return fmt.Sprintf("Slot %d", *a.New+1)
	default:
		return fmt.Sprintf("Slot %d", *a.Old+1)
	}
}

func (a Assignment) Tag() string {
	switch a.Kind {
	case Moved:
		return "MOVE"
	case Left:
		return "OUT"
	case Entered:
		return "IN"
	default:
		return ""
	}
}

// IconDistance is the combined aHash+dHash distance of two seats.
func IconDistance(a, b seat.Fingerprint) int {
	return imagehash.Distance(a.IconAHash, b.IconAHash) + imagehash.Distance(a.IconDHash, b.IconDHash)
}

// TextDistance is the nameplate pHash distance of two seats.
func TextDistance(a, b seat.Fingerprint) int {
	return imagehash.Distance(a.PlatePHash, b.PlatePHash)
}

// Match assigns old seats to new seats greedily in old-seat order. For each
// non-empty old seat it takes the unconsumed new seat within both thresholds
// with the lowest text distance (icon distance breaks ties, then the lower
// index). Each new seat is used at most once; leftovers enter.
func Match(old, new []seat.Fingerprint, th Thresholds) []Assignment {
	var out []Assignment
	used := make([]bool, len(new))

	for i := range old {
		o := old[i]
		if o.Empty {
			continue
		}
		best := -1
		var bestCost float64
		var bestIcon, bestText int
		for j := range new {
			n := new[j]
			if used[j] || n.Empty {
				continue
			}
			icon := IconDistance(o, n)
			text := TextDistance(o, n)
			if icon > th.Icon || text > th.Text {
				continue
			}
			cost := float64(text) + 0.001*float64(icon)
			if best < 0 || cost < bestCost {
				best, bestCost, bestIcon, bestText = j, cost, icon, text
			}
		}

		oi := i
		if best < 0 {
			out = append(out, Assignment{Old: &oi, Kind: Left})
			continue
		}
		used[best] = true
		nj := best
		kind := Stayed
		if nj != oi {
			kind = Moved
		}
		out = append(out, Assignment{Old: &oi, New: &nj, Kind: kind, IconDistance: bestIcon, TextDistance: bestText})
	}

	for j := range new {
		if used[j] || new[j].Empty {
			continue
		}
		nj := j
		out = append(out, Assignment{New: &nj, Kind: Entered})
	}
	return out
}

// Summary lists the slot labels that entered and left, sorted.
func Summary(as []Assignment) (entered, left []string) {
	for _, a := range as {
		switch a.Kind {
		case Entered:
			entered = append(entered, a.Label())
		case Left:
			left = append(left, a.Label())
		}
	}
	sort.Strings(entered)
	sort.Strings(left)
	return entered, left
}
