package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func mustApply(t *testing.T, r Room, cmd Command) Room {
	t.Helper()
	_, next, err := Apply(r, cmd)
	if err != nil {
		t.Fatalf("%s: unexpected err: %v", cmd.Type, err)
	}
	return next
}

func add(t *testing.T, r Room, names ...string) Room {
	t.Helper()
	for _, n := range names {
		r = mustApply(t, r, Command{Type: CmdAddPlayer, Nickname: n})
	}
	return r
}

func match(t *testing.T, r Room, chooser, opponent string) Room {
	t.Helper()
	return mustApply(t, r, Command{Type: CmdCommitMatch, Chooser: chooser, Opponent: opponent})
}

func player(t *testing.T, r Room, n string) Player {
	t.Helper()
	i := r.Find(n)
	if i < 0 {
		t.Fatalf("player %q not in room", n)
	}
	return r.Players[i]
}

func TestAddPlayerRejected(t *testing.T) {
	full := NewRoom(DefaultSettings)
	for i := 0; i < MaxActive; i++ {
		full = add(t, full, fmt.Sprintf("p%d", i))
	}

	cases := []struct {
		name    string
		setup   Room
		cmd     Command
		wantErr error
	}{
		{
			name:    "blank nickname",
			setup:   NewRoom(DefaultSettings),
			cmd:     Command{Type: CmdAddPlayer, Nickname: "   "},
			wantErr: ErrEmptyNickname,
		},
		{
			name:    "duplicate after trimming",
			setup:   add(t, NewRoom(DefaultSettings), "A"),
			cmd:     Command{Type: CmdAddPlayer, Nickname: " A "},
			wantErr: ErrDuplicateNickname,
		},
		{
			name:    "duplicate in another normal form",
			setup:   add(t, NewRoom(DefaultSettings), "café"),
			cmd:     Command{Type: CmdAddPlayer, Nickname: "cafe\u0301"},
			wantErr: ErrDuplicateNickname,
		},
		{
			name:    "roster full",
			setup:   full,
			cmd:     Command{Type: CmdAddPlayer, Nickname: "late"},
			wantErr: ErrRosterFull,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, next, err := Apply(tc.setup, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got err %v, want %v", err, tc.wantErr)
			}
			if events != nil {
				t.Fatalf("expected no events, got %v", events)
			}
			if len(next.Players) != len(tc.setup.Players) {
				t.Fatalf("room changed on rejected command")
			}
		})
	}
}

func TestHeldPlayersDoNotCountTowardCapacity(t *testing.T) {
	r := NewRoom(DefaultSettings)
	for i := 0; i < MaxActive; i++ {
		r = add(t, r, fmt.Sprintf("p%d", i))
	}
	r = mustApply(t, r, Command{Type: CmdToggleHold, Nickname: "p0"})
	r = add(t, r, "late")

	if _, _, err := Apply(r, Command{Type: CmdToggleHold, Nickname: "p0"}); !errors.Is(err, ErrRosterFull) {
		t.Fatalf("resume into a full room: got %v", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B")
	before := r.Clone()

	_ = match(t, r, "A", "B")
	_ = mustApply(t, r, Command{Type: CmdToggleHold, Nickname: "A"})
	_ = mustApply(t, r, Command{Type: CmdRemovePlayer, Nickname: "B"})

	if r.Round != before.Round || len(r.Players) != 2 || r.Players[0] != before.Players[0] || len(r.EventLog) != 0 {
		t.Fatalf("input room was modified: %+v", r)
	}
}

func TestCommitMatchAtRoundZero(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B")

	events, next, err := Apply(r, Command{Type: CmdCommitMatch, Chooser: "A", Opponent: "B"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtMatchCommitted) || !ContainsEvent(events, EvtRoundAdvanced) {
		t.Fatalf("missing events: %v", events)
	}
	if next.Round != 1 {
		t.Fatalf("round: got %d, want 1", next.Round)
	}

	a, b := player(t, next, "A"), player(t, next, "B")
	if a.LastPlay != 1 || b.LastPlay != 1 {
		t.Fatalf("lastPlay: got %d/%d, want 1/1", a.LastPlay, b.LastPlay)
	}
	if a.MatchCount != 1 || b.MatchCount != 1 {
		t.Fatalf("matchCount: got %d/%d", a.MatchCount, b.MatchCount)
	}
	if a.ChooserCount != 1 || b.ChooserCount != 0 {
		t.Fatalf("chooserCount: got %d/%d, want 1/0", a.ChooserCount, b.ChooserCount)
	}
	if a.WaitSum != 0 || b.WaitSum != 0 {
		t.Fatalf("waitSum: got %d/%d, want 0/0", a.WaitSum, b.WaitSum)
	}
	if next.PlayerHistory["A"] != (Record{MatchCount: 1, ChooserCount: 1}) {
		t.Fatalf("history not updated: %+v", next.PlayerHistory["A"])
	}
	want := LogEntry{Type: LogMatch, Round: 1, Chooser: "A", Opponent: "B"}
	if len(next.EventLog) != 1 || next.EventLog[0].Chooser != want.Chooser || next.EventLog[0].Round != want.Round {
		t.Fatalf("event log: %+v", next.EventLog)
	}
}

func TestCommitMatchAccumulatesWait(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B", "C")
	r = match(t, r, "A", "B") // round 1
	r = match(t, r, "A", "B") // round 2
	r = match(t, r, "C", "A") // round 3

	if c := player(t, r, "C"); c.WaitSum != 2 || c.LastPlay != 3 {
		t.Fatalf("C: waitSum %d lastPlay %d, want 2 and 3", c.WaitSum, c.LastPlay)
	}
	if b := player(t, r, "B"); b.WaitSum != 0 || CurrentWait(r, b) != 1 {
		t.Fatalf("B: waitSum %d wait %d", b.WaitSum, CurrentWait(r, b))
	}
}

func TestCommitMatchRejected(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B", "C")
	r = mustApply(t, r, Command{Type: CmdToggleHold, Nickname: "C"})

	cases := []struct {
		name     string
		chooser  string
		opponent string
		wantErr  error
	}{
		{"same player", "A", "A", ErrSamePlayer},
		{"unknown chooser", "Z", "A", ErrUnknownPlayer},
		{"unknown opponent", "A", "Z", ErrUnknownPlayer},
		{"held opponent", "A", "C", ErrPlayerOnHold},
		{"held chooser", "C", "B", ErrPlayerOnHold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := Apply(r, Command{Type: CmdCommitMatch, Chooser: tc.chooser, Opponent: tc.opponent})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if next.Round != r.Round {
				t.Fatalf("round advanced on rejected match")
			}
		})
	}
}

func TestHoldShiftsLastPlay(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B", "C")
	r = match(t, r, "A", "C") // round 1, C lastPlay 1

	events, r, err := Apply(r, Command{Type: CmdToggleHold, Nickname: "C"})
	if err != nil || !ContainsEvent(events, EvtPlayerHeld) {
		t.Fatalf("hold: %v %v", events, err)
	}
	if c := player(t, r, "C"); !c.OnHold || c.HoldStart == nil || *c.HoldStart != 1 {
		t.Fatalf("hold state: %+v", c)
	}

	r = match(t, r, "A", "B") // round 2
	r = match(t, r, "B", "A") // round 3

	events, r, err = Apply(r, Command{Type: CmdToggleHold, Nickname: "C"})
	if err != nil || !ContainsEvent(events, EvtPlayerResumed) {
		t.Fatalf("resume: %v %v", events, err)
	}
	c := player(t, r, "C")
	if c.OnHold || c.HoldStart != nil {
		t.Fatalf("resume state: %+v", c)
	}
	if c.LastPlay != 3 || CurrentWait(r, c) != 0 {
		t.Fatalf("lastPlay %d wait %d, want 3 and 0", c.LastPlay, CurrentWait(r, c))
	}
}

func TestRejoinRestoresHistory(t *testing.T) {
	r := add(t, NewRoom(DefaultSettings), "A", "B", "C")
	r = match(t, r, "A", "B")
	r = mustApply(t, r, Command{Type: CmdRemovePlayer, Nickname: "A"})
	if r.Find("A") >= 0 {
		t.Fatalf("A still in roster")
	}
	r = match(t, r, "B", "C")

	events, r, err := Apply(r, Command{Type: CmdAddPlayer, Nickname: "A"})
	if err != nil || !ContainsEvent(events, EvtPlayerRejoined) {
		t.Fatalf("rejoin: %v %v", events, err)
	}
	a := player(t, r, "A")
	if !a.Rejoined || a.JoinOrder != 0 || a.MatchCount != 1 || a.ChooserCount != 1 {
		t.Fatalf("rejoined player: %+v", a)
	}
	if a.LastPlay != 2 || a.JoinedAt != 2 {
		t.Fatalf("rejoin round: lastPlay %d joinedAt %d", a.LastPlay, a.JoinedAt)
	}
	if len(r.Seen) != 3 {
		t.Fatalf("seen grew on rejoin: %v", r.Seen)
	}

	r = add(t, r, "D")
	if d := player(t, r, "D"); d.JoinOrder != 3 || d.Rejoined {
		t.Fatalf("new player: %+v", d)
	}
}

func TestRemoveUnknown(t *testing.T) {
	_, _, err := Apply(NewRoom(DefaultSettings), Command{Type: CmdRemovePlayer, Nickname: "ghost"})
	if !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("got %v", err)
	}
}

func hardCapRoom() Room {
	r := NewRoom(Settings{NewcomerBoost: true, HardCap: true})
	r.Round = 3
	for i, n := range []string{"A", "B", "C", "D", "E"} {
		r.Seen = append(r.Seen, n)
		r.Players = append(r.Players, Player{Nickname: n, JoinOrder: i, LastPlay: 3})
	}
	return r
}

func TestHardCap(t *testing.T) {
	two := hardCapRoom()
	two.Players[2].LastPlay = 0 // C
	two.Players[3].LastPlay = 0 // D

	three := two.Clone()
	three.Players[4].LastPlay = 0 // E

	held := two.Clone()
	held.Players[3].OnHold = true

	cases := []struct {
		name     string
		setup    Room
		chooser  string
		opponent string
		atRisk   []string
	}{
		{"skips both waiters", two, "A", "B", []string{"C", "D"}},
		{"skips one waiter", two, "C", "A", []string{"D"}},
		{"serves both waiters", two, "C", "D", nil},
		{"held waiter is ignored", held, "C", "A", nil},
		{"more waiters than seats", three, "C", "D", nil},
		{"more waiters, one seat wasted", three, "C", "A", []string{"D", "E"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := Apply(tc.setup, Command{Type: CmdCommitMatch, Chooser: tc.chooser, Opponent: tc.opponent})
			if tc.atRisk == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			var hc *HardCapError
			if !errors.As(err, &hc) || !errors.Is(err, ErrHardCap) {
				t.Fatalf("got %v, want hard cap error", err)
			}
			if fmt.Sprint(hc.AtRisk) != fmt.Sprint(tc.atRisk) {
				t.Fatalf("at risk: got %v, want %v", hc.AtRisk, tc.atRisk)
			}
			if next.Round != tc.setup.Round {
				t.Fatalf("round advanced on rejected match")
			}
		})
	}

	off := two.Clone()
	off.Settings.HardCap = false
	if _, _, err := Apply(off, Command{Type: CmdCommitMatch, Chooser: "A", Opponent: "B"}); err != nil {
		t.Fatalf("hard cap off: %v", err)
	}
}

func TestResetKeepsSettings(t *testing.T) {
	s := Settings{NewcomerBoost: false, Safeguard: true}
	r := add(t, NewRoom(s), "A", "B")
	r = match(t, r, "A", "B")

	events, r, err := Apply(r, Command{Type: CmdReset})
	if err != nil || !ContainsEvent(events, EvtRoomReset) {
		t.Fatalf("reset: %v %v", events, err)
	}
	if r.Round != 0 || len(r.Players) != 0 || len(r.Seen) != 0 || len(r.PlayerHistory) != 0 || len(r.EventLog) != 0 {
		t.Fatalf("room not cleared: %+v", r)
	}
	if r.Settings != s {
		t.Fatalf("settings: got %+v, want %+v", r.Settings, s)
	}
}

func TestRecordAnalysis(t *testing.T) {
	r := NewRoom(DefaultSettings)

	events, same, err := Apply(r, Command{Type: CmdRecordAnalysis})
	if err != nil || events != nil || len(same.EventLog) != 0 {
		t.Fatalf("no-change analysis should be a no-op: %v %v", events, err)
	}

	r = mustApply(t, r, Command{Type: CmdRecordAnalysis, Entered: []string{"Slot 5", "Slot 2"}, Left: []string{"Slot 1"}})
	if len(r.EventLog) != 1 {
		t.Fatalf("event log: %+v", r.EventLog)
	}
	e := r.EventLog[0]
	if e.Type != LogAnalysis || fmt.Sprint(e.Entered) != "[Slot 2 Slot 5]" || fmt.Sprint(e.Left) != "[Slot 1]" {
		t.Fatalf("entry: %+v", e)
	}
}

func TestEventLogIsBounded(t *testing.T) {
	r := NewRoom(DefaultSettings)
	for i := 0; i < MaxEventLog+5; i++ {
		r.Round = i
		r = mustApply(t, r, Command{Type: CmdRecordAnalysis, Left: []string{"Slot 1"}})
	}
	if len(r.EventLog) != MaxEventLog {
		t.Fatalf("log length %d", len(r.EventLog))
	}
	if r.EventLog[0].Round != 5 {
		t.Fatalf("oldest entry round %d, want 5", r.EventLog[0].Round)
	}
}

func TestSetSettings(t *testing.T) {
	r := NewRoom(DefaultSettings)
	if _, _, err := Apply(r, Command{Type: CmdSetSettings}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("nil settings: %v", err)
	}
	r = mustApply(t, r, Command{Type: CmdSetSettings, Settings: &Settings{Safeguard: true}})
	if !r.Settings.Safeguard || r.Settings.NewcomerBoost {
		t.Fatalf("settings: %+v", r.Settings)
	}
	if _, _, err := Apply(r, Command{Type: "Bogus"}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("bogus command: %v", err)
	}
}

func TestRandomCommandsKeepWaitsNonNegative(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	settings := Settings{NewcomerBoost: true, Safeguard: true}
	r := NewRoom(settings)

	for step := 0; step < 2000; step++ {
		var cmd Command
		switch rnd.Intn(5) {
		case 0:
			cmd = Command{Type: CmdAddPlayer, Nickname: names[rnd.Intn(len(names))]}
		case 1:
			cmd = Command{Type: CmdRemovePlayer, Nickname: names[rnd.Intn(len(names))]}
		case 2:
			cmd = Command{Type: CmdToggleHold, Nickname: names[rnd.Intn(len(names))]}
		default:
			cmd = Command{Type: CmdCommitMatch, Chooser: names[rnd.Intn(len(names))], Opponent: names[rnd.Intn(len(names))]}
		}
		if _, next, err := Apply(r, cmd); err == nil {
			r = next
		}

		for _, p := range r.Players {
			if w := CurrentWait(r, p); w < 0 {
				t.Fatalf("step %d: %s has wait %d (round %d lastPlay %d)", step, p.Nickname, w, r.Round, p.LastPlay)
			}
		}
		if r.ActiveCount() > MaxActive {
			t.Fatalf("step %d: %d active players", step, r.ActiveCount())
		}
		first, second := Rank(r, DefaultSort), Rank(r, DefaultSort)
		for i := range first {
			if first[i].Nickname != second[i].Nickname {
				t.Fatalf("step %d: ranking changed between calls", step)
			}
		}
	}
	if r.Round == 0 {
		t.Fatalf("no match was ever committed")
	}
}
