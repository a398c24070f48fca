package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const InteractionsPath = "/discord/interactions"

// Metrics is the HTTP side of the metrics adapter.
type Metrics interface {
	Handler() http.Handler
	Collect(next http.Handler) http.Handler
}

func NewRouter(interactions http.Handler, metrics Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Collect)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Method(http.MethodPost, InteractionsPath, interactions)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// requestLogger attaches a request scoped logger to the context and logs each request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := log.With().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("remoteAddr", r.RemoteAddr).
			Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			l.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("handled request")
		}()

		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))
	})
}
