package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// SnapshotVersion is the schema version Encode writes.
const SnapshotVersion = 2

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is the persisted form of a room.
type Snapshot struct {
	Version int  `json:"version"`
	Room    Room `json:"room"`
}

// legacySnapshot is the unversioned shape: toggles lived beside the room and
// the log held match entries only.
type legacySnapshot struct {
	Room struct {
		Round            int               `json:"round"`
		Players          []Player          `json:"players"`
		Seen             []string          `json:"seen"`
		PlayerHistory    map[string]Record `json:"playerHistory"`
		MatchLog         []LogEntry        `json:"matchLog"`
		EventLog         []LogEntry        `json:"eventLog"`
		NewcomerPriority *bool             `json:"newcomerPriority"`
	} `json:"room"`
	Toggles *struct {
		Newcomer  *bool `json:"newcomer"`
		Safeguard *bool `json:"safeguard"`
	} `json:"toggles"`
}

func Encode(r Room) ([]byte, error) {
	return json.Marshal(Snapshot{Version: SnapshotVersion, Room: r})
}

// Decode reads any known snapshot version, migrates it to the current one
// and validates the result.
func Decode(data []byte) (Room, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Room{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var r Room
	switch head.Version {
	case 0, 1:
		var legacy legacySnapshot
		if err := json.Unmarshal(data, &legacy); err != nil {
			return Room{}, fmt.Errorf("decode v1 snapshot: %w", err)
		}
		r = migrateV1(legacy)
	case SnapshotVersion:
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return Room{}, fmt.Errorf("decode v2 snapshot: %w", err)
		}
		r = s.Room
	default:
		return Room{}, fmt.Errorf("%w: %d", ErrSnapshotVersion, head.Version)
	}

	r = fillDefaults(r)
	if err := Validate(r); err != nil {
		return Room{}, err
	}
	return r, nil
}

func migrateV1(l legacySnapshot) Room {
	r := Room{
		Round:         l.Room.Round,
		Players:       l.Room.Players,
		Seen:          l.Room.Seen,
		PlayerHistory: l.Room.PlayerHistory,
		EventLog:      l.Room.EventLog,
		Settings:      DefaultSettings,
	}
	if r.EventLog == nil && l.Room.MatchLog != nil {
		r.EventLog = make([]LogEntry, 0, len(l.Room.MatchLog))
		for _, e := range l.Room.MatchLog {
			e.Type = LogMatch
			r.EventLog = append(r.EventLog, e)
		}
	}
	if l.Room.NewcomerPriority != nil {
		r.Settings.NewcomerBoost = *l.Room.NewcomerPriority
	}
	if t := l.Toggles; t != nil {
		if t.Newcomer != nil {
			r.Settings.NewcomerBoost = *t.Newcomer
		}
		if t.Safeguard != nil {
			r.Settings.Safeguard = *t.Safeguard
		}
	}
	return r
}

func fillDefaults(r Room) Room {
	if r.Players == nil {
		r.Players = []Player{}
	}
	if r.Seen == nil {
		r.Seen = []string{}
	}
	if r.PlayerHistory == nil {
		r.PlayerHistory = map[string]Record{}
	}
	if r.EventLog == nil {
		r.EventLog = []LogEntry{}
	}
	// Players from before seen-tracking still get a join order slot.
	for _, p := range r.Players {
		if !slices.Contains(r.Seen, p.Nickname) {
			r.Seen = append(r.Seen, p.Nickname)
		}
	}
	return r
}

// Validate reports every inconsistency in r at once.
func Validate(r Room) error {
	var err error
	if r.Round < 0 {
		err = multierr.Append(err, fmt.Errorf("round %d is negative", r.Round))
	}
	names := make(map[string]bool, len(r.Players))
	for i, p := range r.Players {
		if p.Nickname == "" {
			err = multierr.Append(err, fmt.Errorf("player %d: empty nickname", i))
		} else if names[p.Nickname] {
			err = multierr.Append(err, fmt.Errorf("player %q: duplicate nickname", p.Nickname))
		}
		names[p.Nickname] = true

		if p.LastPlay > r.Round {
			err = multierr.Append(err, fmt.Errorf("player %q: last play %d is after round %d", p.Nickname, p.LastPlay, r.Round))
		}
		if p.MatchCount < 0 || p.ChooserCount < 0 || p.WaitSum < 0 {
			err = multierr.Append(err, fmt.Errorf("player %q: negative counter", p.Nickname))
		}
		if p.ChooserCount > p.MatchCount {
			err = multierr.Append(err, fmt.Errorf("player %q: chose %d of %d matches", p.Nickname, p.ChooserCount, p.MatchCount))
		}
	}
	if n := r.ActiveCount(); n > MaxActive {
		err = multierr.Append(err, fmt.Errorf("%d active players, at most %d", n, MaxActive))
	}
	return err
}
