// Package pipeline runs one ingest cycle per source: fetch, canonicalize,
// enrich, conditionally insert, then notify and publish what was new.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
	"github.com/couchcryptid/disaster-rtd-service/internal/source"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

// Store writes records with insert-if-absent semantics.
type Store interface {
	InsertIfAbsent(ctx context.Context, r domain.RtdRecord) (bool, error)
}

// Notifier pushes a notification for a newly stored record.
type Notifier interface {
	Notify(ctx context.Context, r domain.RtdRecord) (domain.BatchResult, error)
}

// Publisher forwards newly stored records downstream.
type Publisher interface {
	Publish(ctx context.Context, records []domain.RtdRecord) error
}

const (
	defaultRetryAttempts = 2
	defaultRetryBackoff  = 200 * time.Millisecond
	maxRetryBackoff      = 5 * time.Second
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier enables push notifications for inserted records.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithPublisher enables downstream publishing of inserted records.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithRetry sets how many times a failed insert is attempted and the first
// backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.retryAttempts = attempts
		}
		if backoff > 0 {
			p.retryBackoff = backoff
		}
	}
}

// SourceStats is the cumulative ingest history of one source.
type SourceStats struct {
	Source     string    `json:"source"`
	Cycles     int       `json:"cycles"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Dropped    int       `json:"dropped"`
	LastRunAt  time.Time `json:"last_run_at"`
	LastError  string    `json:"last_error,omitempty"`
}

// Result summarizes one ingest cycle.
type Result struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Dropped    int
}

// Pipeline orchestrates ingest cycles. It is safe for concurrent use by
// different sources.
type Pipeline struct {
	transformer   *Transformer
	store         Store
	notifier      Notifier
	publisher     Publisher
	retryAttempts int
	retryBackoff  time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics

	mu    sync.Mutex
	stats map[string]*SourceStats
}

// New creates a Pipeline writing to store.
func New(t *Transformer, store Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		transformer:   t,
		store:         store,
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
		logger:        logger,
		metrics:       metrics,
		stats:         make(map[string]*SourceStats),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Job adapts a source into a scheduler job.
func (p *Pipeline) Job(src source.Source) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := p.Ingest(ctx, src)
		return err
	}
}

// Ingest runs one cycle for src. Records that could not be stored are
// dropped for this cycle and reported in the returned error; the upstream
// will surface them again on the next fetch.
func (p *Pipeline) Ingest(ctx context.Context, src source.Source) (Result, error) {
	name := src.Name()
	var res Result

	events, err := src.Fetch(ctx)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues(name).Inc()
		err = fmt.Errorf("fetch %s: %w", name, err)
		p.record(name, res, err)
		return res, err
	}
	acker, _ := src.(source.Acknowledger)
	res.Fetched = len(events)
	p.metrics.EventsFetched.WithLabelValues(name).Add(float64(len(events)))

	inserted := make([]domain.RtdRecord, 0, len(events))
	for _, ev := range events {
		if ctx.Err() != nil {
			break
		}
		rec := p.transformer.Transform(ctx, ev)
		hazard := rec.HazardCode.String()

		ok, err := p.insertWithRetry(ctx, rec)
		if err != nil {
			res.Dropped++
			p.metrics.StorageErrors.WithLabelValues(hazard).Inc()
			p.logger.Error("store record failed, dropping for this cycle",
				"source", name, "id", rec.ID, "hazard_code", int(rec.HazardCode), "error", err)
			continue
		}
		if acker != nil {
			acker.Ack(ev)
		}
		if !ok {
			res.Duplicates++
			p.metrics.RecordsDuplicate.WithLabelValues(hazard).Inc()
			continue
		}

		res.Inserted++
		p.metrics.RecordsInserted.WithLabelValues(hazard).Inc()
		p.logger.Info("record stored", "source", name, "id", rec.ID, "hazard_code", int(rec.HazardCode), "location", rec.LocationText)
		inserted = append(inserted, rec)
		p.notify(ctx, rec)
	}

	p.publish(ctx, name, inserted)

	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case res.Dropped > 0:
		err = fmt.Errorf("%s: %d of %d records not stored", name, res.Dropped, res.Fetched)
	}
	p.record(name, res, err)

	p.logger.Debug("ingest cycle complete",
		"source", name,
		"fetched", res.Fetched,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"dropped", res.Dropped,
	)
	return res, err
}

// insertWithRetry attempts the conditional insert up to retryAttempts times
// with doubling backoff.
func (p *Pipeline) insertWithRetry(ctx context.Context, rec domain.RtdRecord) (bool, error) {
	backoff := p.retryBackoff
	var lastErr error
	for attempt := 1; attempt <= p.retryAttempts; attempt++ {
		ok, err := p.store.InsertIfAbsent(ctx, rec)
		if err == nil {
			return ok, nil
		}
		lastErr = err
		if attempt == p.retryAttempts {
			break
		}
		p.logger.Warn("store record failed, retrying", "id", rec.ID, "attempt", attempt, "backoff", backoff, "error", err)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return false, errors.Join(lastErr, ctx.Err())
		}
		backoff = sharedretry.NextBackoff(backoff, maxRetryBackoff)
	}
	return false, lastErr
}

func (p *Pipeline) notify(ctx context.Context, rec domain.RtdRecord) {
	if p.notifier == nil {
		return
	}
	if _, err := p.notifier.Notify(ctx, rec); err != nil {
		p.logger.Warn("notification failed", "id", rec.ID, "error", err)
	}
}

func (p *Pipeline) publish(ctx context.Context, name string, records []domain.RtdRecord) {
	if p.publisher == nil || len(records) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, records); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish failed", "source", name, "count", len(records), "error", err)
	}
}

func (p *Pipeline) record(name string, res Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stats[name]
	if !ok {
		s = &SourceStats{Source: name}
		p.stats[name] = s
	}
	s.Cycles++
	s.Fetched += res.Fetched
	s.Inserted += res.Inserted
	s.Duplicates += res.Duplicates
	s.Dropped += res.Dropped
	s.LastRunAt = domain.Now()
	s.LastError = ""
	if err != nil {
		s.LastError = err.Error()
	}
}

// Stats returns per-source statistics sorted by source name.
func (p *Pipeline) Stats() []SourceStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]SourceStats, 0, len(p.stats))
	for _, s := range p.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
