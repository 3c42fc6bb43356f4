// Package scheduler keeps the roster of a matchmaking room and ranks its
// players for the next match by how long and how often they have waited.
package scheduler

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeNickname trims and NFC-normalises a nickname so that visually
// identical names compare equal.
func NormalizeNickname(n string) string {
	return norm.NFC.String(strings.TrimSpace(n))
}

// Apply runs cmd against r. r itself is never modified: the returned room is
// a fresh copy on success and r unchanged on error.
func Apply(r Room, cmd Command) ([]Event, Room, error) {
	switch cmd.Type {
	case CmdAddPlayer:
		return addPlayer(r, cmd)
	case CmdRemovePlayer:
		return removePlayer(r, cmd)
	case CmdToggleHold:
		return toggleHold(r, cmd)
	case CmdCommitMatch:
		return commitMatch(r, cmd)
	case CmdReset:
		next := NewRoom(r.Settings)
		return []Event{{Type: EvtRoomReset}}, next, nil
	case CmdRecordAnalysis:
		return recordAnalysis(r, cmd)
	case CmdSetSettings:
		if cmd.Settings == nil {
			return nil, r, ErrUnsupportedCommand
		}
		next := r.Clone()
		next.Settings = *cmd.Settings
		return []Event{{Type: EvtSettingsChanged, Round: next.Round}}, next, nil
	default:
		return nil, r, ErrUnsupportedCommand
	}
}

func addPlayer(r Room, cmd Command) ([]Event, Room, error) {
	n := NormalizeNickname(cmd.Nickname)
	if n == "" {
		return nil, r, ErrEmptyNickname
	}
	if r.Find(n) >= 0 {
		return nil, r, ErrDuplicateNickname
	}
	if r.ActiveCount() >= MaxActive {
		return nil, r, ErrRosterFull
	}

	next := r.Clone()
	joinOrder := slices.Index(next.Seen, n)
	rejoin := joinOrder >= 0
	if !rejoin {
		joinOrder = len(next.Seen)
		next.Seen = append(next.Seen, n)
	}
	rec, ok := next.PlayerHistory[n]
	if !ok || !rejoin {
		rec = Record{}
	}
	if !ok {
		next.PlayerHistory[n] = Record{}
	}

	next.Players = append(next.Players, Player{
		Nickname:     n,
		JoinOrder:    joinOrder,
		LastPlay:     next.Round,
		JoinedAt:     next.Round,
		MatchCount:   rec.MatchCount,
		ChooserCount: rec.ChooserCount,
		WaitSum:      rec.WaitSum,
		Rejoined:     rejoin,
	})

	evt := EvtPlayerAdded
	if rejoin {
		evt = EvtPlayerRejoined
	}
	return []Event{{Type: evt, Nickname: n, Round: next.Round}}, next, nil
}

func removePlayer(r Room, cmd Command) ([]Event, Room, error) {
	n := NormalizeNickname(cmd.Nickname)
	i := r.Find(n)
	if i < 0 {
		return nil, r, ErrUnknownPlayer
	}
	next := r.Clone()
	next.Players = slices.Delete(next.Players, i, i+1)
	return []Event{{Type: EvtPlayerRemoved, Nickname: n, Round: next.Round}}, next, nil
}

// toggleHold freezes a player's wait while held. Resuming shifts lastPlay
// forward by the rounds spent on hold, so the wait picks up where it was.
func toggleHold(r Room, cmd Command) ([]Event, Room, error) {
	n := NormalizeNickname(cmd.Nickname)
	i := r.Find(n)
	if i < 0 {
		return nil, r, ErrUnknownPlayer
	}
	if r.Players[i].OnHold && r.ActiveCount() >= MaxActive {
		return nil, r, ErrRosterFull
	}

	next := r.Clone()
	p := &next.Players[i]
	if !p.OnHold {
		p.OnHold = true
		start := next.Round
		p.HoldStart = &start
		return []Event{{Type: EvtPlayerHeld, Nickname: n, Round: next.Round}}, next, nil
	}

	p.OnHold = false
	if p.HoldStart != nil {
		if d := next.Round - *p.HoldStart; d > 0 {
			p.LastPlay += d
		}
		p.HoldStart = nil
	}
	return []Event{{Type: EvtPlayerResumed, Nickname: n, Round: next.Round}}, next, nil
}

func commitMatch(r Room, cmd Command) ([]Event, Room, error) {
	cn, on := NormalizeNickname(cmd.Chooser), NormalizeNickname(cmd.Opponent)
	ci, oi := r.Find(cn), r.Find(on)
	if ci < 0 || oi < 0 {
		return nil, r, ErrUnknownPlayer
	}
	if ci == oi {
		return nil, r, ErrSamePlayer
	}
	if r.Players[ci].OnHold || r.Players[oi].OnHold {
		return nil, r, ErrPlayerOnHold
	}

	nextRound := r.Round + 1
	if r.Settings.HardCap {
		if err := checkHardCap(r, nextRound, ci, oi); err != nil {
			return nil, r, err
		}
	}

	next := r.Clone()
	c, o := &next.Players[ci], &next.Players[oi]

	// Rounds actually sat out since the previous match.
	c.WaitSum += max(0, nextRound-c.LastPlay-1)
	o.WaitSum += max(0, nextRound-o.LastPlay-1)

	next.Round = nextRound
	c.LastPlay, o.LastPlay = next.Round, next.Round
	c.MatchCount++
	o.MatchCount++
	c.ChooserCount++

	next.PlayerHistory[c.Nickname] = Record{MatchCount: c.MatchCount, ChooserCount: c.ChooserCount, WaitSum: c.WaitSum}
	next.PlayerHistory[o.Nickname] = Record{MatchCount: o.MatchCount, ChooserCount: o.ChooserCount, WaitSum: o.WaitSum}

	next.appendLog(LogEntry{Type: LogMatch, Round: next.Round, Chooser: c.Nickname, Opponent: o.Nickname})

	events := []Event{
		{Type: EvtMatchCommitted, Chooser: c.Nickname, Opponent: o.Nickname, Round: next.Round},
		{Type: EvtRoundAdvanced, Round: next.Round},
	}
	return events, next, nil
}

// checkHardCap refuses a match that would leave an active, unselected player
// at UrgentWait or more once the round advances. When more players are at
// risk than one match can serve, a match between two of them is allowed.
func checkHardCap(r Room, nextRound, ci, oi int) error {
	var atRisk []string
	selected := 0
	for i, p := range r.Players {
		if p.OnHold || nextRound-p.LastPlay < UrgentWait {
			continue
		}
		if i == ci || i == oi {
			selected++
			continue
		}
		atRisk = append(atRisk, p.Nickname)
	}
	if len(atRisk) == 0 || selected == 2 {
		return nil
	}
	return &HardCapError{AtRisk: atRisk}
}

func recordAnalysis(r Room, cmd Command) ([]Event, Room, error) {
	if len(cmd.Entered) == 0 && len(cmd.Left) == 0 {
		return nil, r, nil
	}
	next := r.Clone()
	entered := slices.Clone(cmd.Entered)
	left := slices.Clone(cmd.Left)
	slices.Sort(entered)
	slices.Sort(left)
	next.appendLog(LogEntry{Type: LogAnalysis, Round: next.Round, Entered: entered, Left: left})
	return []Event{{Type: EvtAnalysisRecorded, Round: next.Round}}, next, nil
}

func (r *Room) appendLog(e LogEntry) {
	r.EventLog = append(r.EventLog, e)
	if extra := len(r.EventLog) - MaxEventLog; extra > 0 {
		r.EventLog = slices.Delete(r.EventLog, 0, extra)
	}
}
