package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger проверка готовности хранилища.
type Pinger func(ctx context.Context) error

type Server struct {
	srv *http.Server
}

type Options struct {
	Addr          string
	ExposeMetrics bool
	Gatherer      prometheus.Gatherer // nil = prometheus.DefaultGatherer
	Ready         Pinger
}

func New(opts Options) *Server {
	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func NewHandler(opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready(ctx); err != nil {
				writeText(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
		}
		writeText(w, http.StatusOK, "OK")
	})

	if opts.ExposeMetrics {
		g := opts.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
