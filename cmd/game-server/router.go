package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"gridduel/internal/arena"
	"gridduel/internal/config"
	"gridduel/internal/logging"
	"gridduel/internal/ws"
)

func newRouter(cfg config.ServerConfig, coord *arena.Coordinator, wsServer *ws.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler())
	r.With(apiLogMiddleware()).Get("/api/stats", statsHandler(coord, wsServer))
	r.Get("/ws", wsServer.HandleWS)

	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	return r
}

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// statsHandler exposes live matchmaking gauges for quick operational
// checks; nothing here is persisted.
func statsHandler(coord *arena.Coordinator, wsServer *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := coord.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"connections": wsServer.Connections(),
			"waiting":     st.Waiting,
			"rooms":       st.Rooms,
		})
	}
}
