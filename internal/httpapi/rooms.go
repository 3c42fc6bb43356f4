package httpapi

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/hub"
	"github.com/DoyleJ11/versus-room/internal/lobby"
	"github.com/DoyleJ11/versus-room/internal/scheduler"
	"github.com/DoyleJ11/versus-room/internal/store"
	"github.com/DoyleJ11/versus-room/internal/types"
)

const (
	codeLength   = 6
	codeAttempts = 16
)

type api struct {
	hub  *hub.Hub
	diff *diff.Engine
	log  *zap.Logger
}

type ctxKey int

const lobbyKey ctxKey = iota

// GenerateCode returns a random room code of upper-case letters and digits.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// RoomResponse is the body of every successful room call.
type RoomResponse struct {
	lobby.View
	Events  []scheduler.Event `json:"events,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

func (a *api) createRoom(w http.ResponseWriter, r *http.Request) {
	for range codeAttempts {
		code, err := GenerateCode()
		if err != nil {
			WriteError(w, types.Body(types.CodeInternal))
			return
		}
		// Codes already live or stored are skipped.
		existing, err := a.hub.Find(r.Context(), code)
		if err != nil {
			WriteError(w, types.ErrorOf(err))
			return
		}
		if existing != nil {
			a.log.Debug("room code collision", zap.String("room", code))
			continue
		}

		lb, err := a.hub.Create(r.Context(), code, scheduler.NewRoom(a.hub.Settings()))
		if err != nil || lb == nil {
			WriteError(w, types.Body(types.CodeUnavailable))
			return
		}
		view, err := lb.State(r.Context())
		if err != nil {
			WriteError(w, types.ErrorOf(err))
			return
		}
		WriteJSON(w, http.StatusCreated, RoomResponse{View: view})
		return
	}
	WriteError(w, types.Body(types.CodeUnavailable))
}

// withRoom resolves {code} to a live or stored room.
func (a *api) withRoom(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !store.ValidCode(code) {
			WriteError(w, types.Body(types.CodeNotFound))
			return
		}
		lb, err := a.hub.Find(r.Context(), code)
		if err != nil {
			WriteError(w, types.ErrorOf(err))
			return
		}
		if lb == nil {
			WriteError(w, types.Body(types.CodeNotFound))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), lobbyKey, lb)))
	})
}

func roomFrom(r *http.Request) *lobby.Lobby {
	lb, _ := r.Context().Value(lobbyKey).(*lobby.Lobby)
	return lb
}

func nicknameParam(r *http.Request) string {
	raw := chi.URLParam(r, "nickname")
	if r.URL.RawPath == "" {
		return raw
	}
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

// getRoom returns the room view. sort and order query parameters re-rank
// the roster; unknown values fall back to priority order.
func (a *api) getRoom(w http.ResponseWriter, r *http.Request) {
	view, err := roomFrom(r).State(r.Context())
	if err != nil {
		WriteError(w, types.ErrorOf(err))
		return
	}
	q := r.URL.Query()
	if q.Has("sort") || q.Has("order") {
		cfg := scheduler.SortConfig{Key: scheduler.SortKey(q.Get("sort")), Order: scheduler.SortOrder(q.Get("order"))}
		if cfg.Order == "" {
			cfg.Order = scheduler.Desc
		}
		view.Ranking = scheduler.Rank(view.Room, cfg)
	}
	WriteJSON(w, http.StatusOK, RoomResponse{View: view})
}

// getLeader returns the active player who should play next, or 404 when no
// one is active.
func (a *api) getLeader(w http.ResponseWriter, r *http.Request) {
	view, err := roomFrom(r).State(r.Context())
	if err != nil {
		WriteError(w, types.ErrorOf(err))
		return
	}
	if view.Leader == nil {
		WriteError(w, types.Body(types.CodeNoLeader))
		return
	}
	WriteJSON(w, http.StatusOK, view.Leader)
}

// deleteRoom shuts the room down and drops its stored snapshot.
func (a *api) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := a.hub.Delete(r.Context(), roomFrom(r).Code()); err != nil {
		WriteError(w, types.ErrorOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type playerRequest struct {
	Nickname string `json:"nickname"`
}

func (a *api) addPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, types.Body(types.CodeBadRequest))
		return
	}
	a.do(w, r, scheduler.Command{Type: scheduler.CmdAddPlayer, Nickname: req.Nickname})
}

func (a *api) removePlayer(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, scheduler.Command{Type: scheduler.CmdRemovePlayer, Nickname: nicknameParam(r)})
}

func (a *api) toggleHold(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, scheduler.Command{Type: scheduler.CmdToggleHold, Nickname: nicknameParam(r)})
}

type matchRequest struct {
	Chooser  string `json:"chooser"`
	Opponent string `json:"opponent"`
}

func (a *api) commitMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, types.Body(types.CodeBadRequest))
		return
	}
	a.do(w, r, scheduler.Command{Type: scheduler.CmdCommitMatch, Chooser: req.Chooser, Opponent: req.Opponent})
}

func (a *api) reset(w http.ResponseWriter, r *http.Request) {
	a.do(w, r, scheduler.Command{Type: scheduler.CmdReset})
}

func (a *api) setSettings(w http.ResponseWriter, r *http.Request) {
	var s scheduler.Settings
	if err := decodeJSON(w, r, &s); err != nil {
		WriteError(w, types.Body(types.CodeBadRequest))
		return
	}
	a.do(w, r, scheduler.Command{Type: scheduler.CmdSetSettings, Settings: &s})
}

func (a *api) undo(w http.ResponseWriter, r *http.Request) {
	res, err := roomFrom(r).Undo(r.Context())
	a.reply(w, res, err)
}

func (a *api) redo(w http.ResponseWriter, r *http.Request) {
	res, err := roomFrom(r).Redo(r.Context())
	a.reply(w, res, err)
}

func (a *api) do(w http.ResponseWriter, r *http.Request, cmd scheduler.Command) {
	res, err := roomFrom(r).Do(r.Context(), cmd)
	a.reply(w, res, err)
}

func (a *api) reply(w http.ResponseWriter, res lobby.Result, err error) {
	if err == nil {
		err = res.Err
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		WriteError(w, types.ErrorOf(err))
		return
	}
	WriteJSON(w, http.StatusOK, RoomResponse{View: res.View, Events: res.Events, Warning: res.Warning})
}
