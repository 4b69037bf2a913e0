package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/battlesnake-replay/internal/config"
	"github.com/DoyleJ11/battlesnake-replay/internal/hub"
	"github.com/DoyleJ11/battlesnake-replay/internal/ws"
)

func SetupRoutes(h *hub.Hub, cfg config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	// Routes for the match given on the command line.
	r.Get("/", RenderPage(h, cfg.DefaultMatch))
	r.Get("/render/{turn}", RenderPage(h, cfg.DefaultMatch))

	r.Route("/matches", func(r chi.Router) {
		r.Get("/", ListMatches(h))
		r.Post("/", UploadMatch(h, cfg.MaxUploadBytes))
		r.Get("/{code}/render/{turn}", RenderPage(h, ""))
		r.Get("/{code}/turns/{turn}", TurnJSON(h))
	})

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, cfg.WSOrigins, log))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
