// Package lobby runs one goroutine per room. Every change to the room goes
// through its inbox, is persisted, and is broadcast to subscribed clients.
package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/scheduler"
	"github.com/DoyleJ11/versus-room/internal/store"
)

var ErrClosed = errors.New("room is closed")

// WarnNotSaved is set on a Result when the change was applied in memory but
// the snapshot could not be written.
const WarnNotSaved = "changes are live but could not be saved"

const saveTimeout = 3 * time.Second

type Msg interface{ isLobbyMsg() }

// FromClient applies a scheduler command. Reply is optional.
type FromClient struct {
	Cmd   scheduler.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Undo struct{ Reply chan Result }

func (Undo) isLobbyMsg() {}

type Redo struct{ Reply chan Result }

func (Redo) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is what clients receive after every change.
type Snapshot struct {
	Code    string             `json:"code"`
	Version int                `json:"version"`
	Room    scheduler.Room     `json:"room"`
	Ranking []scheduler.Ranked `json:"ranking"`
	Leader  *scheduler.Ranked  `json:"leader"` // nil with no one active
	CanUndo bool               `json:"canUndo"`
	CanRedo bool               `json:"canRedo"`
}

type View struct {
	Snapshot
	NumClients int `json:"numClients"`
}

// Result answers a FromClient, Undo or Redo.
type Result struct {
	Events  []scheduler.Event
	View    View
	Err     error
	Warning string
}

type Options struct {
	Code  string
	Room  scheduler.Room
	Store store.Store // nil keeps the room in memory only
	Log   *zap.Logger
}

type Lobby struct {
	code    string
	inbox   chan Msg
	room    scheduler.Room
	history *scheduler.History
	version int
	clients map[string]chan Snapshot
	store   store.Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		code:    opts.Code,
		inbox:   make(chan Msg, 64), // Small buffer
		room:    opts.Room,
		history: scheduler.NewHistory(scheduler.HistoryDepth),
		clients: make(map[string]chan Snapshot),
		store:   opts.Store,
		log:     log.With(zap.String("room", opts.Code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Done is closed once the room has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				l.send(msg.ClientID, msg.Outbox, l.snapshot())

			case Leave:
				delete(l.clients, msg.ClientID)

			case FromClient:
				reply(msg.Reply, l.apply(msg.Cmd))

			case Undo:
				reply(msg.Reply, l.travel(l.history.Undo))

			case Redo:
				reply(msg.Reply, l.travel(l.history.Redo))

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func reply(ch chan Result, res Result) {
	if ch != nil {
		ch <- res
	}
}

func (l *Lobby) apply(cmd scheduler.Command) Result {
	events, next, err := scheduler.Apply(l.room, cmd)
	if err != nil {
		l.log.Debug("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return Result{Err: err, View: l.view()}
	}
	if events == nil {
		// Nothing changed, so nothing to broadcast.
		return Result{View: l.view()}
	}
	if cmd.Type.Undoable() {
		l.history.Record(l.room)
	}
	l.room = next
	res := Result{Events: events}
	res.Warning = l.commit()
	res.View = l.view()
	return res
}

// travel steps through history. Settings are not history, so the current
// ones carry over onto the restored room.
func (l *Lobby) travel(step func(scheduler.Room) (scheduler.Room, error)) Result {
	next, err := step(l.room)
	if err != nil {
		return Result{Err: err, View: l.view()}
	}
	next.Settings = l.room.Settings
	l.room = next
	res := Result{}
	res.Warning = l.commit()
	res.View = l.view()
	return res
}

// commit bumps the version, persists and broadcasts. It returns a warning
// when persisting failed.
func (l *Lobby) commit() string {
	l.version++
	warning := l.persist()
	l.broadcast(l.snapshot())
	return warning
}

func (l *Lobby) persist() string {
	if l.store == nil {
		return ""
	}
	data, err := scheduler.Encode(l.room)
	if err == nil {
		ctx, cancel := context.WithTimeout(l.ctx, saveTimeout)
		err = l.store.Save(ctx, l.code, data)
		cancel()
	}
	if err != nil {
		l.log.Warn("snapshot not saved", zap.Int("version", l.version), zap.Error(err))
		return WarnNotSaved
	}
	return ""
}

func (l *Lobby) snapshot() Snapshot {
	snap := Snapshot{
		Code:    l.code,
		Version: l.version,
		Room:    l.room,
		Ranking: scheduler.Rank(l.room, scheduler.DefaultSort),
		CanUndo: l.history.CanUndo(),
		CanRedo: l.history.CanRedo(),
	}
	if leader, ok := scheduler.Leader(l.room); ok {
		snap.Leader = &leader
	}
	return snap
}

func (l *Lobby) view() View {
	return View{Snapshot: l.snapshot(), NumClients: len(l.clients)}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.send(id, ch, snap)
	}
}

func (l *Lobby) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		//ok
	default:
		// Client is slow/full - drop them.
		l.log.Info("dropping slow client", zap.String("client", id))
		close(ch)
		delete(l.clients, id)
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless ctx ends or the room has shut down.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do applies cmd and waits for the outcome.
func (l *Lobby) Do(ctx context.Context, cmd scheduler.Command) (Result, error) {
	return l.request(ctx, func(ch chan Result) Msg { return FromClient{Cmd: cmd, Reply: ch} })
}

func (l *Lobby) Undo(ctx context.Context) (Result, error) {
	return l.request(ctx, func(ch chan Result) Msg { return Undo{Reply: ch} })
}

func (l *Lobby) Redo(ctx context.Context) (Result, error) {
	return l.request(ctx, func(ch chan Result) Msg { return Redo{Reply: ch} })
}

// State returns the current view.
func (l *Lobby) State(ctx context.Context) (View, error) {
	ch := make(chan View, 1)
	if err := l.Send(ctx, GetState{Reply: ch}); err != nil {
		return View{}, err
	}
	select {
	case v := <-ch:
		return v, nil
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) request(ctx context.Context, mk func(chan Result) Msg) (Result, error) {
	ch := make(chan Result, 1)
	if err := l.Send(ctx, mk(ch)); err != nil {
		return Result{}, err
	}
	select {
	case res := <-ch:
		return res, nil
	case <-l.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
