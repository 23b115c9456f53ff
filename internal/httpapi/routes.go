package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/questlog/backend/internal/campaigns"
	"github.com/questlog/backend/internal/rooms"
	"github.com/questlog/backend/internal/store"
	"github.com/questlog/backend/internal/ws"
)

func SetupRoutes(events store.EventStore, dir campaigns.Directory, reg *rooms.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rolls", RollDice(log))
	r.Post("/events", CreateEvent(events, dir, log))
	r.Get("/events", PageEvents(events, dir, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(reg, dir, log))
	return r
}
