package scheduler

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortPriority     SortKey = "priority"
	SortNickname     SortKey = "nickname"
	SortChooserCount SortKey = "chooserCount"
	SortWaitCurrent  SortKey = "w_curr"
	SortWaitAverage  SortKey = "w_avg"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type SortConfig struct {
	Key   SortKey   `json:"key"`
	Order SortOrder `json:"order"`
}

var DefaultSort = SortConfig{Key: SortPriority, Order: Desc}

// Valid reports whether c names a known key and order.
func (c SortConfig) Valid() bool {
	switch c.Key {
	case SortPriority, SortNickname, SortChooserCount, SortWaitCurrent, SortWaitAverage:
	default:
		return false
	}
	return c.Order == Asc || c.Order == Desc
}

// Ranked is a player with the columns it was ranked by.
type Ranked struct {
	Player
	Stats
	Urgent bool `json:"urgent"`
}

// Rank orders the roster for the next match. Held players always come last.
// With safeguard mode on, active players waiting UrgentWait rounds or more
// come first, longest wait first, then lowest chooser ratio. Everyone else
// is ordered by cfg; equal keys fall back to score then join order.
func Rank(r Room, cfg SortConfig) []Ranked {
	if !cfg.Valid() {
		cfg = DefaultSort
	}
	roomAvg := RoomAverageWait(r)
	out := make([]Ranked, len(r.Players))
	for i, p := range r.Players {
		st := Evaluate(r, p, roomAvg)
		out[i] = Ranked{
			Player: p,
			Stats:  st,
			Urgent: r.Settings.Safeguard && !p.OnHold && st.WaitCurr >= UrgentWait,
		}
	}

	col := collate.New(language.Und)
	byKey := func(a, b Ranked) int {
		switch cfg.Key {
		case SortNickname:
			return col.CompareString(a.Nickname, b.Nickname)
		case SortChooserCount:
			return cmp.Compare(a.ChooserCount, b.ChooserCount)
		case SortWaitCurrent:
			return cmp.Compare(a.WaitCurr, b.WaitCurr)
		case SortWaitAverage:
			return cmp.Compare(a.WaitAvg, b.WaitAvg)
		default:
			return cmp.Compare(a.Score, b.Score)
		}
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		if a.OnHold != b.OnHold {
			if a.OnHold {
				return 1
			}
			return -1
		}
		if a.Urgent != b.Urgent {
			if a.Urgent {
				return -1
			}
			return 1
		}
		if a.Urgent {
			if c := cmp.Compare(b.WaitCurr, a.WaitCurr); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Ratio, b.Ratio); c != 0 {
				return c
			}
			return cmp.Compare(a.JoinOrder, b.JoinOrder)
		}

		c := byKey(a, b)
		if cfg.Order == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.JoinOrder, b.JoinOrder)
	})
	return out
}

// Leader is the active player who should play next, by priority.
func Leader(r Room) (Ranked, bool) {
	for _, p := range Rank(r, DefaultSort) {
		if !p.OnHold {
			return p, true
		}
	}
	return Ranked{}, false
}
