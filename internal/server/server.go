// Package server exposes stored tournaments and their dashboard payloads
// over HTTP for remote carousels.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/source"
	"github.com/pable/go-pong-stats/internal/storage"
)

// Store is the read side of the event store used by the API.
type Store interface {
	ListTournaments() ([]storage.TournamentSummary, error)
	GetTournament(id int64) (model.Tournament, error)
}

// Dashboards computes dashboard payloads.
type Dashboards interface {
	FetchDashboard(ctx context.Context, tournamentID int64) (*model.Dashboard, error)
}

// Options tunes the server. Zero values take the defaults.
type Options struct {
	Logger *slog.Logger
	// RateLimit is the sustained per-IP request rate; Burst the bucket size.
	RateLimit rate.Limit
	Burst     int
	Registry  *prometheus.Registry
}

type Server struct {
	store      Store
	dashboards Dashboards
	log        *slog.Logger
	limiter    *IPRateLimiter
	metrics    *metrics
	registry   *prometheus.Registry
}

func New(store Store, dashboards Dashboards, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 20
	}
	if opts.Burst == 0 {
		opts.Burst = 40
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	return &Server{
		store:      store,
		dashboards: dashboards,
		log:        opts.Logger,
		limiter:    NewIPRateLimiter(opts.RateLimit, opts.Burst),
		metrics:    newMetrics(opts.Registry),
		registry:   opts.Registry,
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)
	r.Use(RateLimitMiddleware(s.limiter))

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/tournaments", s.listTournaments)
	r.Get("/tournaments/{id}", s.getTournament)
	r.Get("/tournaments/{id}/dashboard", s.getDashboard)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTournaments()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []storage.TournamentSummary{}
	}
	writeJSON(w, list)
}

func (s *Server) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTournament(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if t.Groups == nil {
		t.Groups = []string{}
	}
	writeJSON(w, t)
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	start := time.Now()
	d, err := s.dashboards.FetchDashboard(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.buildSeconds.Observe(time.Since(start).Seconds())
	writeJSON(w, d)
}

func tournamentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid tournament id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, source.ErrNotFound) {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	s.log.Error("request failed", "path", r.URL.Path, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
