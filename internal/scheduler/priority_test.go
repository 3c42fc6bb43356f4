package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.33, round2(4.0/3))
	assert.Equal(t, 1.01, round2(1.005))
	assert.Equal(t, 0.5, round2(0.5))
}

func TestAverageWait(t *testing.T) {
	r := Room{Round: 3}
	cases := []struct {
		name  string
		p     Player
		want  float64
		known bool
	}{
		{"newcomer who has not waited", Player{LastPlay: 3}, 0, false},
		{"newcomer waiting", Player{LastPlay: 1}, 2, true},
		{"waiting folds into history", Player{LastPlay: 2, MatchCount: 2, WaitSum: 3}, 1.33, true},
		{"just played", Player{LastPlay: 3, MatchCount: 2, WaitSum: 3}, 1.5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, known := AverageWait(r, tc.p)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.known, known)
		})
	}
}

func TestChooserRatio(t *testing.T) {
	assert.Equal(t, 0.0, ChooserRatio(Player{}))
	assert.Equal(t, 0.33, ChooserRatio(Player{MatchCount: 3, ChooserCount: 1}))
}

func TestRoomAverageWaitPoolsExperiencedPlayers(t *testing.T) {
	r := Room{Players: []Player{
		{Nickname: "A", MatchCount: 2, WaitSum: 3},
		{Nickname: "B", MatchCount: 2, WaitSum: 1},
		{Nickname: "C", WaitSum: 9},
	}}
	assert.Equal(t, 1.0, RoomAverageWait(r))
	assert.Equal(t, 0.0, RoomAverageWait(Room{}))
}

func TestEvaluate(t *testing.T) {
	r := Room{Round: 4, Settings: Settings{NewcomerBoost: true}}

	vet := Evaluate(r, Player{LastPlay: 2, MatchCount: 2, ChooserCount: 1, WaitSum: 2}, 1.5)
	assert.Equal(t, 2, vet.WaitCurr)
	assert.Equal(t, 1.33, vet.WaitAvg)
	assert.Equal(t, 0.5, vet.Ratio)
	assert.InDelta(t, 3.28, vet.Score, 1e-9)

	fresh := Evaluate(r, Player{LastPlay: 3}, 1.5)
	assert.InDelta(t, 3.5, fresh.Score, 1e-9)
	assert.Equal(t, 1.0, fresh.WaitAvg)

	r.Settings.NewcomerBoost = false
	fresh = Evaluate(r, Player{LastPlay: 3}, 1.5)
	assert.InDelta(t, 1.0, fresh.Score, 1e-9)

	held := Evaluate(r, Player{LastPlay: 1, OnHold: true}, 0)
	assert.False(t, held.WaitAvgSet)
}
