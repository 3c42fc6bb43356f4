package scheduler

import "errors"

var ErrEmptyNickname = errors.New("nickname is empty")
var ErrDuplicateNickname = errors.New("nickname already in the room")
var ErrRosterFull = errors.New("room already has the maximum of active players")
var ErrUnknownPlayer = errors.New("no such player")
var ErrPlayerOnHold = errors.New("player is on hold")
var ErrSamePlayer = errors.New("a player cannot play against themselves")
var ErrHardCap = errors.New("match would leave a player waiting past the cap")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	// MaxActive is the most non-held players a room can seat.
	MaxActive = 8
	// UrgentWait is the current wait at which safeguard mode moves a player
	// to the front, and at which the hard cap refuses to skip them.
	UrgentWait = 4
	// MaxEventLog bounds the room event log; older entries are dropped.
	MaxEventLog = 100
)

// Player is one roster entry. Counters are restored from Room.PlayerHistory
// when a nickname rejoins.
type Player struct {
	Nickname     string `json:"nickname"`
	JoinOrder    int    `json:"joinOrder"`
	LastPlay     int    `json:"lastPlay"`
	JoinedAt     int    `json:"joinedAt"`
	MatchCount   int    `json:"matchCount"`
	ChooserCount int    `json:"chooserCount"`
	WaitSum      int    `json:"waitSum"`
	OnHold       bool   `json:"onHold"`
	HoldStart    *int   `json:"holdStart"`
	Rejoined     bool   `json:"rejoined"`
}

// Record is the permanent per-nickname history that survives removal.
type Record struct {
	MatchCount   int `json:"matchCount"`
	ChooserCount int `json:"chooserCount"`
	WaitSum      int `json:"waitSum"`
}

type LogType string

const (
	LogMatch    LogType = "match"
	LogAnalysis LogType = "analysis"
)

type LogEntry struct {
	Type  LogType `json:"type"`
	Round int     `json:"round"`

	// match
	Chooser  string `json:"chooser,omitempty"`
	Opponent string `json:"opponent,omitempty"`

	// analysis
	Entered []string `json:"entered,omitempty"`
	Left    []string `json:"left,omitempty"`
}

type Settings struct {
	NewcomerBoost bool `json:"newcomerBoost"`
	Safeguard     bool `json:"safeguard"`
	HardCap       bool `json:"hardCap"`
}

var DefaultSettings = Settings{NewcomerBoost: true}

type Room struct {
	Round         int               `json:"round"`
	Players       []Player          `json:"players"`
	Seen          []string          `json:"seen"`
	PlayerHistory map[string]Record `json:"playerHistory"`
	EventLog      []LogEntry        `json:"eventLog"`
	Settings      Settings          `json:"settings"`
}

func NewRoom(s Settings) Room {
	return Room{
		Players:       []Player{},
		Seen:          []string{},
		PlayerHistory: map[string]Record{},
		EventLog:      []LogEntry{},
		Settings:      s,
	}
}

// Clone returns a deep copy of r.
func (r Room) Clone() Room {
	out := r
	out.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		if p.HoldStart != nil {
			hs := *p.HoldStart
			p.HoldStart = &hs
		}
		out.Players[i] = p
	}
	out.Seen = append([]string{}, r.Seen...)
	out.PlayerHistory = make(map[string]Record, len(r.PlayerHistory))
	for k, v := range r.PlayerHistory {
		out.PlayerHistory[k] = v
	}
	out.EventLog = make([]LogEntry, len(r.EventLog))
	for i, e := range r.EventLog {
		e.Entered = append([]string(nil), e.Entered...)
		e.Left = append([]string(nil), e.Left...)
		out.EventLog[i] = e
	}
	return out
}

// Find returns the index of nickname in the roster, or -1.
func (r Room) Find(nickname string) int {
	for i := range r.Players {
		if r.Players[i].Nickname == nickname {
			return i
		}
	}
	return -1
}

// ActiveCount is the number of players not on hold.
func (r Room) ActiveCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.OnHold {
			n++
		}
	}
	return n
}

type CommandType string

const (
	CmdAddPlayer      CommandType = "AddPlayer"
	CmdRemovePlayer   CommandType = "RemovePlayer"
	CmdToggleHold     CommandType = "ToggleHold"
	CmdCommitMatch    CommandType = "CommitMatch"
	CmdReset          CommandType = "Reset"
	CmdRecordAnalysis CommandType = "RecordAnalysis"
	CmdSetSettings    CommandType = "SetSettings"
)

/*
	CmdAddPlayer      -> EvtPlayerAdded | EvtPlayerRejoined
	CmdRemovePlayer   -> EvtPlayerRemoved
	CmdToggleHold     -> EvtPlayerHeld | EvtPlayerResumed
	CmdCommitMatch    -> EvtMatchCommitted -> EvtRoundAdvanced
	CmdReset          -> EvtRoomReset
	CmdRecordAnalysis -> EvtAnalysisRecorded (nothing when no seat changed)
	CmdSetSettings    -> EvtSettingsChanged
*/

// Undoable reports whether a command's room change goes on the undo stack.
// Analysis records and settings are not roster edits.
func (c CommandType) Undoable() bool {
	switch c {
	case CmdRecordAnalysis, CmdSetSettings:
		return false
	}
	return true
}

type Command struct {
	Type     CommandType `json:"type"`
	Nickname string      `json:"nickname,omitempty"`
	Chooser  string      `json:"chooser,omitempty"`
	Opponent string      `json:"opponent,omitempty"`
	Entered  []string    `json:"entered,omitempty"`
	Left     []string    `json:"left,omitempty"`
	Settings *Settings   `json:"settings,omitempty"`
}

type EventType string

const (
	EvtPlayerAdded      EventType = "PlayerAdded"
	EvtPlayerRejoined   EventType = "PlayerRejoined"
	EvtPlayerRemoved    EventType = "PlayerRemoved"
	EvtPlayerHeld       EventType = "PlayerHeld"
	EvtPlayerResumed    EventType = "PlayerResumed"
	EvtMatchCommitted   EventType = "MatchCommitted"
	EvtRoundAdvanced    EventType = "RoundAdvanced"
	EvtRoomReset        EventType = "RoomReset"
	EvtAnalysisRecorded EventType = "AnalysisRecorded"
	EvtSettingsChanged  EventType = "SettingsChanged"
)

type Event struct {
	Type     EventType `json:"type"`
	Nickname string    `json:"nickname,omitempty"`
	Chooser  string    `json:"chooser,omitempty"`
	Opponent string    `json:"opponent,omitempty"`
	Round    int       `json:"round"`
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
