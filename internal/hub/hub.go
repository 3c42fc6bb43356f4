// Package hub owns the set of live rooms, keyed by room code.
package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/lobby"
	"github.com/DoyleJ11/versus-room/internal/scheduler"
	"github.com/DoyleJ11/versus-room/internal/store"
)

const loadTimeout = 3 * time.Second

type HubMsg interface{ isHubMsg() }

// CreateRoom starts a fresh room, or returns the live one under Code.
type CreateRoom struct {
	Code  string
	Room  scheduler.Room
	Reply chan *lobby.Lobby
}

type GetRoom struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureRoom returns the live room, restores it from the store, or creates
// an empty one with the hub's default settings. With MustExist set, a code
// that is neither live nor stored replies nil instead.
type EnsureRoom struct {
	Code      string
	MustExist bool
	Reply     chan *lobby.Lobby
}

// RemoveRoom shuts the room down. Its stored snapshot is kept.
type RemoveRoom struct {
	Code string
}

// DeleteRoom shuts the room down and deletes its stored snapshot.
type DeleteRoom struct {
	Code  string
	Reply chan error
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (DeleteRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Store    store.Store
	Settings scheduler.Settings
	Log      *zap.Logger
}

type Hub struct {
	inbox    chan HubMsg
	lobbies  map[string]*lobby.Lobby
	store    store.Store
	settings scheduler.Settings
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		lobbies:  make(map[string]*lobby.Lobby),
		store:    opts.Store,
		settings: opts.Settings,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Settings are the defaults for new rooms.
func (h *Hub) Settings() scheduler.Settings { return h.settings }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.start(msg.Code, msg.Room)

			case GetRoom:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureRoom:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				room, found := h.restore(msg.Code)
				if !found && msg.MustExist {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.start(msg.Code, room)

			case RemoveRoom:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
					delete(h.lobbies, msg.Code)
				}

			case DeleteRoom:
				msg.Reply <- h.delete(msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) start(code string, room scheduler.Room) *lobby.Lobby {
	lb := lobby.NewLobby(h.ctx, lobby.Options{Code: code, Room: room, Store: h.store, Log: h.log})
	h.lobbies[code] = lb
	h.log.Info("room started", zap.String("room", code), zap.Int("players", len(room.Players)))
	return lb
}

// restore loads code's snapshot. A missing or unreadable snapshot yields an
// empty room; the unreadable case is logged and still counts as found.
func (h *Hub) restore(code string) (scheduler.Room, bool) {
	fresh := scheduler.NewRoom(h.settings)
	if h.store == nil {
		return fresh, false
	}
	ctx, cancel := context.WithTimeout(h.ctx, loadTimeout)
	defer cancel()
	data, err := h.store.Load(ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("snapshot load failed", zap.String("room", code), zap.Error(err))
		}
		return fresh, false
	}
	room, err := scheduler.Decode(data)
	if err != nil {
		h.log.Warn("snapshot unreadable", zap.String("room", code), zap.Error(err))
		return fresh, true
	}
	return room, true
}

// delete waits for the room to stop so no late save can recreate the
// snapshot, then removes it from the store.
func (h *Hub) delete(code string) error {
	ctx, cancel := context.WithTimeout(h.ctx, loadTimeout)
	defer cancel()
	if lb := h.lobbies[code]; lb != nil {
		lb.Inbox() <- lobby.Shutdown{}
		delete(h.lobbies, code)
		select {
		case <-lb.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if h.store == nil {
		return nil
	}
	if err := h.store.Delete(ctx, code); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Warn("snapshot delete failed", zap.String("room", code), zap.Error(err))
		return err
	}
	h.log.Info("room deleted", zap.String("room", code))
	return nil
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
	h.cancel()
}

// Get returns the live room under code, or nil.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	return h.ask(ctx, func(ch chan *lobby.Lobby) HubMsg { return GetRoom{Code: code, Reply: ch} })
}

// Ensure returns the room under code, restoring or creating it.
func (h *Hub) Ensure(ctx context.Context, code string) (*lobby.Lobby, error) {
	return h.ask(ctx, func(ch chan *lobby.Lobby) HubMsg { return EnsureRoom{Code: code, Reply: ch} })
}

// Find returns the live room under code, restoring it from the store if
// needed. It returns nil when the code is unknown.
func (h *Hub) Find(ctx context.Context, code string) (*lobby.Lobby, error) {
	return h.ask(ctx, func(ch chan *lobby.Lobby) HubMsg {
		return EnsureRoom{Code: code, MustExist: true, Reply: ch}
	})
}

// Create starts a room under code seeded with room, or returns the live one.
func (h *Hub) Create(ctx context.Context, code string, room scheduler.Room) (*lobby.Lobby, error) {
	return h.ask(ctx, func(ch chan *lobby.Lobby) HubMsg { return CreateRoom{Code: code, Room: room, Reply: ch} })
}

// Delete shuts down the room under code and removes its snapshot.
func (h *Hub) Delete(ctx context.Context, code string) error {
	ch := make(chan error, 1)
	select {
	case h.inbox <- DeleteRoom{Code: code, Reply: ch}:
	case <-h.ctx.Done():
		return lobby.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ch:
		return err
	case <-h.ctx.Done():
		return lobby.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ask(ctx context.Context, mk func(chan *lobby.Lobby) HubMsg) (*lobby.Lobby, error) {
	ch := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- mk(ch):
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case lb := <-ch:
		return lb, nil
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
