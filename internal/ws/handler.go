package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/hub"
	"github.com/DoyleJ11/versus-room/internal/lobby"
	"github.com/DoyleJ11/versus-room/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 60 * time.Second
)

// Handler streams room snapshots over a websocket and accepts commands on
// the same connection.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb, err := h.Find(r.Context(), code)
		if err != nil || lb == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("room", code), zap.String("client", clientID))

		out := make(chan lobby.Snapshot, 8)
		if err := lb.Send(r.Context(), lobby.Join{ClientID: clientID, Outbox: out}); err != nil {
			return
		}
		defer func() { _ = lb.Send(context.Background(), lobby.Leave{ClientID: clientID}) }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						// The room dropped us or shut down.
						_ = conn.Close(websocket.StatusGoingAway, "room closed")
						return
					}
					write(writeCtx, conn, types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, Snapshot: &snap})
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, types.Body(types.CodeBadRequest))
				continue
			}

			var res lobby.Result
			switch cm.Type {
			case "Undo":
				res, err = lb.Undo(r.Context())
			case "Redo":
				res, err = lb.Redo(r.Context())
			default:
				cmd, ok := types.Command(cm)
				if !ok {
					writeError(r.Context(), conn, types.Body(types.CodeUnsupported))
					continue
				}
				res, err = lb.Do(r.Context(), cmd)
			}
			if err != nil {
				writeError(r.Context(), conn, types.ErrorOf(err))
				return
			}
			if res.Err != nil {
				writeError(r.Context(), conn, types.ErrorOf(res.Err))
				continue
			}
			if res.Warning != "" {
				write(r.Context(), conn, types.ServerMessage{Type: "Warning", Message: res.Warning})
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func writeError(ctx context.Context, conn *websocket.Conn, body types.ErrorBody) {
	write(ctx, conn, types.ServerMessage{Type: "Error", Error: body.Error, Message: body.Message})
}
