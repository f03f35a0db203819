package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/postgres"
	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/pipeline"
	"github.com/couchcryptid/disaster-rtd-service/internal/scheduler"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobReporter exposes scheduler and ingest state for /jobs.
type JobReporter interface {
	Status() []scheduler.JobStatus
}

// StatsSource reports per-source ingest statistics.
type StatsSource interface {
	Stats() []pipeline.SourceStats
}

// RecordQuerier serves the read path for /records.
type RecordQuerier interface {
	Query(ctx context.Context, f postgres.Filter) ([]domain.RtdRecord, error)
}

// ReadinessChecks is ready when every check passes; the first failure is
// reported.
type ReadinessChecks []sharedobs.ReadinessChecker

func (c ReadinessChecks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes health, readiness, metrics and operational endpoints.
type Server struct {
	httpServer *http.Server
	jobs       JobReporter
	stats      StatsSource
	records    RecordQuerier
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /jobs
// and /records routes. stats and records may be nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, jobs JobReporter, stats StatsSource, records RecordQuerier, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		jobs:    jobs,
		stats:   stats,
		records: records,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /jobs", s.handleJobs)
	if records != nil {
		mux.HandleFunc("GET /records", s.handleRecords)
	}

	return s
}

type jobsResponse struct {
	Jobs    []scheduler.JobStatus  `json:"jobs"`
	Sources []pipeline.SourceStats `json:"sources,omitempty"`
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	resp := jobsResponse{Jobs: s.jobs.Status()}
	if s.stats != nil {
		resp.Sources = s.stats.Stats()
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	recs, err := s.records.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("query records failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	if recs == nil {
		recs = []domain.RtdRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, recs)
}

// parseFilter reads hazard (comma-separated codes or names), from and to
// (RFC 3339), region, visible and limit query parameters.
func parseFilter(r *http.Request) (postgres.Filter, error) {
	q := r.URL.Query()
	f := postgres.Filter{VisibleOnly: true}

	if v := q.Get("hazard"); v != "" {
		for _, part := range strings.Split(v, ",") {
			code, err := domain.ParseHazardCode(strings.TrimSpace(part))
			if err != nil {
				return f, err
			}
			f.HazardCodes = append(f.HazardCodes, code)
		}
	}
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := q.Get(p.key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, &paramError{p.key, v}
			}
			*p.dst = t
		}
	}
	if v := q.Get("region"); v != "" {
		code, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, &paramError{"region", v}
		}
		f.RegionCode = &code
	}
	if v := q.Get("visible"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, &paramError{"visible", v}
		}
		f.VisibleOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			return f, &paramError{"limit", v}
		}
		f.Limit = n
	}
	return f, nil
}

type paramError struct {
	key, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.key + " parameter: " + strconv.Quote(e.value)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
