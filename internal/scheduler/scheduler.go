// Package scheduler runs named jobs at independent intervals from a single
// control loop. Each job executes on a bounded worker pool; a job is never
// run concurrently with itself and failures never stop the loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrUnknownJob is returned for operations on a name that was never registered.
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobRunning is returned by Trigger when the job is already executing.
	ErrJobRunning = errors.New("job already running")
)

// Job is the unit of scheduled work.
type Job func(ctx context.Context) error

// Outcome labels recorded per run.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePanic   = "panic"
)

// JobStatus is a point-in-time snapshot of one registered job.
type JobStatus struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	LastRunAt    time.Time     `json:"last_run_at"`
	Running      bool          `json:"running"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	LastOutcome  string        `json:"last_outcome,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
}

type jobState struct {
	name      string
	interval  time.Duration
	lastRunAt time.Time
	work      Job
	running   bool

	runs         int64
	failures     int64
	lastOutcome  string
	lastError    string
	lastDuration time.Duration
}

// Scheduler owns the job registry and the dispatch loop.
type Scheduler struct {
	clock    clockwork.Clock
	tick     time.Duration
	poolSize int
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu    sync.Mutex
	jobs  map[string]*jobState
	order []string
	pool  *semaphore.Weighted

	inflight  sync.WaitGroup
	succeeded atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTick sets the control loop period. Default 1s.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithPoolSize bounds concurrent job executions. Zero means one slot per
// registered job.
func WithPoolSize(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.poolSize = n
		}
	}
}

// New creates an empty scheduler.
func New(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   clockwork.NewRealClock(),
		tick:    time.Second,
		logger:  logger,
		metrics: metrics,
		jobs:    make(map[string]*jobState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. The first run happens on the first tick after Run starts.
func (s *Scheduler) Register(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("register %s: interval must be positive", name)
	}
	if job == nil {
		return fmt.Errorf("register %s: nil job", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("register %s: already registered", name)
	}
	s.jobs[name] = &jobState{name: name, interval: interval, work: job}
	s.order = append(s.order, name)
	s.logger.Info("job registered", "job", name, "interval", interval)
	return nil
}

// SetInterval changes the interval of a registered job, effective from the
// next tick. It returns false for unknown names or non-positive intervals.
func (s *Scheduler) SetInterval(name string, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	j.interval = interval
	s.logger.Info("job interval updated", "job", name, "interval", interval)
	return true
}

// List returns the current interval of every registered job.
func (s *Scheduler) List() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Duration, len(s.jobs))
	for name, j := range s.jobs {
		out[name] = j.interval
	}
	return out
}

// Names returns registered job names in registration order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Status returns a snapshot of every job, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{
			Name:         j.name,
			Interval:     j.interval,
			LastRunAt:    j.lastRunAt,
			Running:      j.running,
			Runs:         j.runs,
			Failures:     j.failures,
			LastOutcome:  j.lastOutcome,
			LastError:    j.lastError,
			LastDuration: j.lastDuration,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// CheckReadiness returns nil once any job has completed successfully.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.succeeded.Load() {
		return errors.New("no scheduled job has completed successfully yet")
	}
	return nil
}

// Run drives the control loop until ctx is cancelled, then waits for
// in-flight jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	size := s.initPool()
	s.logger.Info("scheduler started", "tick", s.tick, "pool_size", size)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	s.runDue(ctx, s.clock.Now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			s.inflight.Wait()
			return nil
		case now := <-ticker.Chan():
			s.runDue(ctx, now)
		}
	}
}

// initPool sizes the worker pool from the registry as it stands when the
// loop starts.
func (s *Scheduler) initPool() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.poolSize
	if size == 0 {
		size = len(s.jobs)
	}
	if size < 1 {
		size = 1
	}
	s.pool = semaphore.NewWeighted(int64(size))
	return size
}

// runDue dispatches every job whose interval has elapsed at now. A job that
// cannot get a pool slot stays due and is retried on the next tick.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		j := s.jobs[name]
		if j.running || now.Sub(j.lastRunAt) < j.interval {
			continue
		}
		if !s.pool.TryAcquire(1) {
			s.logger.Debug("worker pool full, job deferred", "job", name)
			continue
		}
		j.running = true
		j.lastRunAt = now

		s.inflight.Add(1)
		go func(j *jobState) {
			defer s.inflight.Done()
			defer s.pool.Release(1)
			s.execute(ctx, j)
		}(j)
	}
}

// Trigger runs a job immediately in the caller's goroutine. The regular
// schedule is not shifted.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("trigger %s: %w", name, ErrUnknownJob)
	}
	if j.running {
		s.mu.Unlock()
		return fmt.Errorf("trigger %s: %w", name, ErrJobRunning)
	}
	j.running = true
	s.mu.Unlock()

	return s.execute(ctx, j)
}

// execute runs the job with panic recovery and records the outcome. The
// caller must have set j.running.
func (s *Scheduler) execute(ctx context.Context, j *jobState) (err error) {
	start := s.clock.Now()
	s.logger.Debug("job started", "job", j.name)

	outcome := OutcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
			s.logger.Error("job panicked", "job", j.name, "panic", r, "stack", string(debug.Stack()))
		}
		s.finish(j, start, outcome, err)
	}()

	if err = j.work(ctx); err != nil {
		outcome = OutcomeError
		s.logger.Error("job failed", "job", j.name, "error", err)
	}
	return err
}

func (s *Scheduler) finish(j *jobState, start time.Time, outcome string, err error) {
	elapsed := s.clock.Since(start)

	s.mu.Lock()
	j.running = false
	j.runs++
	j.lastOutcome = outcome
	j.lastDuration = elapsed
	j.lastError = ""
	if err != nil {
		j.failures++
		j.lastError = err.Error()
	}
	s.mu.Unlock()

	if outcome == OutcomeSuccess {
		s.succeeded.Store(true)
	}
	s.metrics.JobRuns.WithLabelValues(j.name, outcome).Inc()
	s.metrics.JobDuration.WithLabelValues(j.name).Observe(elapsed.Seconds())
	s.logger.Debug("job finished", "job", j.name, "outcome", outcome, "duration", elapsed)
}
