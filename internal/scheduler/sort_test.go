package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(rs []Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Nickname
	}
	return out
}

func TestRankNewcomerTieByJoinOrder(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B")

	ranked := Rank(r, DefaultSort)
	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"A", "B"}, names(ranked))
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, 2.0, ranked[0].Score)

	for i := 0; i < 5; i++ {
		assert.Equal(t, names(ranked), names(Rank(r, DefaultSort)))
	}
}

func safeguardRoom(safeguard bool) Room {
	r := NewRoom(Settings{Safeguard: safeguard})
	r.Round = 6
	r.Players = []Player{
		{Nickname: "A", JoinOrder: 0, LastPlay: 6, MatchCount: 1, WaitSum: 20},
		{Nickname: "B", JoinOrder: 1, LastPlay: 2, MatchCount: 1},
		{Nickname: "C", JoinOrder: 2, LastPlay: 1, MatchCount: 1},
		{Nickname: "H", JoinOrder: 3, LastPlay: 0, MatchCount: 1, OnHold: true},
	}
	return r
}

func TestRankSafeguard(t *testing.T) {
	assert.Equal(t, []string{"A", "C", "B", "H"}, names(Rank(safeguardRoom(false), DefaultSort)))

	ranked := Rank(safeguardRoom(true), DefaultSort)
	assert.Equal(t, []string{"C", "B", "A", "H"}, names(ranked))
	assert.True(t, ranked[0].Urgent)
	assert.True(t, ranked[1].Urgent)
	assert.False(t, ranked[2].Urgent)
	assert.False(t, ranked[3].Urgent, "held players are never urgent")
}

func TestRankSafeguardPrefersLowerChooserRatio(t *testing.T) {
	r := safeguardRoom(true)
	r.Players[1].LastPlay = 1
	r.Players[1].ChooserCount = 1

	assert.Equal(t, []string{"C", "B", "A", "H"}, names(Rank(r, DefaultSort)))

	r.Players[1].ChooserCount = 0
	assert.Equal(t, []string{"B", "C", "A", "H"}, names(Rank(r, DefaultSort)))
}

func TestRankBySortKey(t *testing.T) {
	r := NewRoom(Settings{})
	r.Round = 5
	r.Players = []Player{
		{Nickname: "bob", JoinOrder: 0, LastPlay: 4, MatchCount: 2, ChooserCount: 1, WaitSum: 2},
		{Nickname: "Alice", JoinOrder: 1, LastPlay: 1, MatchCount: 2, ChooserCount: 2, WaitSum: 1},
		{Nickname: "carol", JoinOrder: 2, LastPlay: 5, MatchCount: 1, ChooserCount: 1, WaitSum: 0},
		{Nickname: "dan", JoinOrder: 3, LastPlay: 5},
	}

	cases := []struct {
		cfg  SortConfig
		want []string
	}{
		{SortConfig{SortNickname, Asc}, []string{"Alice", "bob", "carol", "dan"}},
		{SortConfig{SortNickname, Desc}, []string{"dan", "carol", "bob", "Alice"}},
		{SortConfig{SortWaitCurrent, Desc}, []string{"Alice", "bob", "dan", "carol"}},
		// bob and carol share a chooser count; bob has the higher score.
		{SortConfig{SortChooserCount, Asc}, []string{"dan", "bob", "carol", "Alice"}},
		{SortConfig{SortWaitAverage, Asc}, []string{"dan", "carol", "bob", "Alice"}},
		{SortConfig{"bogus", Asc}, []string{"Alice", "bob", "dan", "carol"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.cfg.Key)+"_"+string(tc.cfg.Order), func(t *testing.T) {
			assert.Equal(t, tc.want, names(Rank(r, tc.cfg)))
		})
	}
}

func TestLeader(t *testing.T) {
	_, ok := Leader(NewRoom(DefaultSettings))
	assert.False(t, ok)

	r := safeguardRoom(false)
	for i := range r.Players {
		if r.Players[i].Nickname == "A" {
			r.Players[i].OnHold = true
		}
	}
	p, ok := Leader(r)
	require.True(t, ok)
	assert.Equal(t, "C", p.Nickname)
}
