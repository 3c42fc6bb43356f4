// Package httpapi is the REST surface over the room hub.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/hub"
	"github.com/DoyleJ11/versus-room/internal/ws"
)

type Options struct {
	Hub *hub.Hub
	// Diff serves POST /rooms/{code}/diff. Nil disables the route.
	Diff *diff.Engine
	Log  *zap.Logger
}

func SetupRoutes(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	api := &api{hub: opts.Hub, diff: opts.Diff, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(opts.Hub, log))

	r.Post("/rooms", api.createRoom)
	r.Route("/rooms/{code}", func(r chi.Router) {
		r.Use(api.withRoom)
		r.Get("/", api.getRoom)
		r.Delete("/", api.deleteRoom)
		r.Get("/leader", api.getLeader)
		r.Post("/players", api.addPlayer)
		r.Delete("/players/{nickname}", api.removePlayer)
		r.Post("/players/{nickname}/hold", api.toggleHold)
		r.Post("/matches", api.commitMatch)
		r.Post("/undo", api.undo)
		r.Post("/redo", api.redo)
		r.Post("/reset", api.reset)
		r.Put("/settings", api.setSettings)
		if opts.Diff != nil {
			r.Post("/diff", api.analyze)
		}
	})
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
