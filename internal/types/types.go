// Package types holds the JSON messages exchanged with clients.
package types

import (
	"errors"

	"github.com/DoyleJ11/versus-room/internal/lobby"
	"github.com/DoyleJ11/versus-room/internal/scheduler"
)

type ClientMessage struct {
	Type     string              `json:"type"`
	Nickname string              `json:"nickname,omitempty"`
	Chooser  string              `json:"chooser,omitempty"`
	Opponent string              `json:"opponent,omitempty"`
	Settings *scheduler.Settings `json:"settings,omitempty"`
}

type ServerMessage struct {
	Type     string          `json:"type"` // "StateSnapshot" | "Error" | "Warning"
	Version  int             `json:"version,omitempty"`
	Snapshot *lobby.Snapshot `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// ErrorBody is the JSON shape of every rejected request.
type ErrorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	AtRisk  []string `json:"atRisk,omitempty"`
}

// Error codes clients can switch on.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeEmptyNickname = "empty_nickname"
	CodeDuplicate     = "duplicate_nickname"
	CodeRosterFull    = "roster_full"
	CodeUnknownPlayer = "unknown_player"
	CodeOnHold        = "player_on_hold"
	CodeSamePlayer    = "same_player"
	CodeHardCap       = "hard_cap"
	CodeNothingToUndo = "nothing_to_undo"
	CodeNothingToRedo = "nothing_to_redo"
	CodeUnsupported   = "unsupported_command"
	CodeTooLarge      = "image_too_large"
	CodeNoLeader      = "no_active_players"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

var messages = map[string]string{
	CodeBadRequest:    "The request could not be read.",
	CodeNotFound:      "No such room.",
	CodeEmptyNickname: "Enter a nickname.",
	CodeDuplicate:     "That nickname is already in the room.",
	CodeRosterFull:    "The room already has 8 active players.",
	CodeUnknownPlayer: "No player with that nickname.",
	CodeOnHold:        "Players on hold cannot be picked for a match.",
	CodeSamePlayer:    "Pick two different players.",
	CodeHardCap:       "This match would skip players who have waited too long.",
	CodeNothingToUndo: "Nothing to undo.",
	CodeNothingToRedo: "Nothing to redo.",
	CodeUnsupported:   "Unknown command.",
	CodeTooLarge:      "Screenshots must be at most 8192 pixels on a side.",
	CodeNoLeader:      "No active players to pick from.",
	CodeUnavailable:   "The room is not available right now.",
	CodeInternal:      "Something went wrong.",
}

// ErrorOf converts a scheduler or lobby error into its client form.
func ErrorOf(err error) ErrorBody {
	code := CodeInternal
	switch {
	case errors.Is(err, scheduler.ErrEmptyNickname):
		code = CodeEmptyNickname
	case errors.Is(err, scheduler.ErrDuplicateNickname):
		code = CodeDuplicate
	case errors.Is(err, scheduler.ErrRosterFull):
		code = CodeRosterFull
	case errors.Is(err, scheduler.ErrUnknownPlayer):
		code = CodeUnknownPlayer
	case errors.Is(err, scheduler.ErrPlayerOnHold):
		code = CodeOnHold
	case errors.Is(err, scheduler.ErrSamePlayer):
		code = CodeSamePlayer
	case errors.Is(err, scheduler.ErrHardCap):
		code = CodeHardCap
	case errors.Is(err, scheduler.ErrNothingToUndo):
		code = CodeNothingToUndo
	case errors.Is(err, scheduler.ErrNothingToRedo):
		code = CodeNothingToRedo
	case errors.Is(err, scheduler.ErrUnsupportedCommand):
		code = CodeUnsupported
	case errors.Is(err, lobby.ErrClosed):
		code = CodeUnavailable
	}
	body := ErrorBody{Error: code, Message: messages[code]}
	var hc *scheduler.HardCapError
	if errors.As(err, &hc) {
		body.AtRisk = hc.AtRisk
	}
	return body
}

// Command maps a client message onto a scheduler command. Undo and Redo are
// lobby messages, not commands, and report ok=false here.
func Command(m ClientMessage) (scheduler.Command, bool) {
	switch m.Type {
	case "AddPlayer":
		return scheduler.Command{Type: scheduler.CmdAddPlayer, Nickname: m.Nickname}, true
	case "RemovePlayer":
		return scheduler.Command{Type: scheduler.CmdRemovePlayer, Nickname: m.Nickname}, true
	case "ToggleHold":
		return scheduler.Command{Type: scheduler.CmdToggleHold, Nickname: m.Nickname}, true
	case "CommitMatch":
		return scheduler.Command{Type: scheduler.CmdCommitMatch, Chooser: m.Chooser, Opponent: m.Opponent}, true
	case "Reset":
		return scheduler.Command{Type: scheduler.CmdReset}, true
	case "SetSettings":
		if m.Settings == nil {
			return scheduler.Command{}, false
		}
		return scheduler.Command{Type: scheduler.CmdSetSettings, Settings: m.Settings}, true
	default:
		return scheduler.Command{}, false
	}
}

// Body is the error body for a code that has no underlying error.
func Body(code string) ErrorBody {
	return ErrorBody{Error: code, Message: messages[code]}
}
