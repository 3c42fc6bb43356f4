package scheduler

import "math"

const (
	// newcomerVirtualWait is the wait a player with no matches is scored
	// with while the newcomer boost is on.
	newcomerVirtualWait = 2
	chooserPenalty      = 0.1

	// epsilon is the gap between 1.0 and the next float64.
	epsilon = 0x1p-52
)

// round2 rounds to two decimals, nudging exact halves up.
func round2(x float64) float64 {
	return math.Round((x+epsilon)*100) / 100
}

// CurrentWait is the number of rounds since p last played.
func CurrentWait(r Room, p Player) int {
	return r.Round - p.LastPlay
}

// AverageWait folds the in-progress wait into p's historical average. The
// bool is false when there is no data yet: a newcomer who has not waited.
func AverageWait(r Room, p Player) (float64, bool) {
	w := CurrentWait(r, p)
	if p.MatchCount == 0 {
		return float64(w), w > 0
	}
	periods := p.MatchCount
	if w > 0 {
		periods++
	}
	return round2(float64(p.WaitSum+w) / float64(periods)), true
}

// ChooserRatio is the share of p's matches in which they chose.
func ChooserRatio(p Player) float64 {
	if p.MatchCount == 0 {
		return 0
	}
	return round2(float64(p.ChooserCount) / float64(p.MatchCount))
}

// RoomAverageWait pools wait over match count across every roster player
// with at least one match.
func RoomAverageWait(r Room) float64 {
	var waits, matches int
	for _, p := range r.Players {
		if p.MatchCount > 0 {
			waits += p.WaitSum
			matches += p.MatchCount
		}
	}
	if matches == 0 {
		return 0
	}
	return round2(float64(waits) / float64(matches))
}

// Stats are the derived ranking columns of one player.
type Stats struct {
	Score      float64 `json:"score"`
	WaitCurr   int     `json:"wCurr"`
	WaitAvg    float64 `json:"wAvg"`
	WaitAvgSet bool    `json:"wAvgSet"`
	Ratio      float64 `json:"rSel"`
}

// Evaluate scores p. roomAvg is RoomAverageWait of the same room; Rank
// computes it once for all players.
func Evaluate(r Room, p Player, roomAvg float64) Stats {
	st := Stats{WaitCurr: CurrentWait(r, p), Ratio: ChooserRatio(p)}
	st.WaitAvg, st.WaitAvgSet = AverageWait(r, p)
	if p.OnHold {
		st.WaitAvgSet = false
	}

	switch {
	case p.MatchCount > 0:
		st.Score = float64(st.WaitCurr) + st.WaitAvg - st.Ratio*chooserPenalty
	case r.Settings.NewcomerBoost:
		st.Score = newcomerVirtualWait + roomAvg
	default:
		st.Score = float64(st.WaitCurr)
	}
	return st
}
