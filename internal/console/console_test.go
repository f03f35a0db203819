package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/pipeline"
	"github.com/couchcryptid/disaster-rtd-service/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	intervals map[string]time.Duration
	triggered []string
	failJob   string
}

func (f *fakeScheduler) List() map[string]time.Duration { return f.intervals }

func (f *fakeScheduler) Names() []string {
	return []string{"earthquake", "warning"}
}

func (f *fakeScheduler) SetInterval(name string, d time.Duration) bool {
	if _, ok := f.intervals[name]; !ok {
		return false
	}
	f.intervals[name] = d
	return true
}

func (f *fakeScheduler) Trigger(_ context.Context, name string) error {
	f.triggered = append(f.triggered, name)
	if name == f.failJob {
		return errors.New("upstream unavailable")
	}
	return nil
}

func (f *fakeScheduler) Status() []scheduler.JobStatus {
	return []scheduler.JobStatus{
		{Name: "earthquake", Interval: 10 * time.Minute, Runs: 3, Failures: 1, LastOutcome: scheduler.OutcomeError,
			LastRunAt: time.Date(2025, time.May, 15, 5, 0, 0, 0, time.UTC)},
		{Name: "warning", Interval: 5 * time.Minute},
	}
}

type fakeStats struct{}

func (fakeStats) Stats() []pipeline.SourceStats {
	return []pipeline.SourceStats{{Source: "earthquake", Fetched: 4, Inserted: 1, Duplicates: 3}}
}

type fakeCounter struct{ err error }

func (c fakeCounter) CountByHazard(context.Context) (map[domain.HazardCode]int64, error) {
	return map[domain.HazardCode]int64{domain.HazardEarthquake: 42}, c.err
}

func newTestConsole() (*Console, *fakeScheduler) {
	sched := &fakeScheduler{intervals: map[string]time.Duration{
		"earthquake": 10 * time.Minute,
		"warning":    5 * time.Minute,
	}}
	hazards := map[domain.HazardCode]string{
		domain.HazardEarthquake: "earthquake",
		domain.HazardHeavyRain:  "warning",
	}
	return New(sched, fakeStats{}, fakeCounter{}, hazards, slog.New(slog.NewTextHandler(io.Discard, nil))), sched
}

func exec(t *testing.T, c *Console, line string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Execute(context.Background(), line, &buf))
	return buf.String()
}

func TestListJobs(t *testing.T) {
	c, _ := newTestConsole()
	out := exec(t, c, "list-jobs")
	assert.Contains(t, out, "earthquake  10m0s")
	assert.Contains(t, out, "warning     5m0s")
}

func TestSetInterval(t *testing.T) {
	c, sched := newTestConsole()

	out := exec(t, c, "set-interval earthquake 30")
	assert.Contains(t, out, "earthquake now runs every 30s")
	assert.Equal(t, 30*time.Second, sched.intervals["earthquake"])

	assert.Contains(t, exec(t, c, "set-interval nope 30"), `unknown job "nope"`)
	assert.Contains(t, exec(t, c, "set-interval earthquake -5"), "positive number")
	assert.Contains(t, exec(t, c, "set-interval earthquake"), "usage")
}

func TestRun_ByJobHazardAndCode(t *testing.T) {
	c, sched := newTestConsole()

	exec(t, c, "run earthquake")
	exec(t, c, "run heavy_rain")
	exec(t, c, "run 51")
	assert.Equal(t, []string{"earthquake", "warning", "earthquake"}, sched.triggered)

	assert.Contains(t, exec(t, c, "run typhoon"), "no job collects hazard typhoon")
	assert.Contains(t, exec(t, c, "run bogus"), `unknown job or hazard "bogus"`)
}

func TestRun_All(t *testing.T) {
	c, sched := newTestConsole()
	sched.failJob = "earthquake"

	out := exec(t, c, "run all")
	assert.Equal(t, []string{"earthquake", "warning"}, sched.triggered)
	assert.Contains(t, out, "earthquake failed: upstream unavailable")
	assert.Contains(t, out, "warning finished")
}

func TestStatus(t *testing.T) {
	c, _ := newTestConsole()
	out := exec(t, c, "status")

	assert.Contains(t, out, "2025-05-15 14:00:00")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "earthquake    51    42")
	assert.Contains(t, out, "typhoon       31    0\n")
}

func TestStatus_CountError(t *testing.T) {
	sched := &fakeScheduler{intervals: map[string]time.Duration{}}
	c := New(sched, nil, fakeCounter{err: errors.New("db down")}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Contains(t, exec(t, c, "status"), "stored record counts unavailable: db down")
}

func TestHelpAndUnknown(t *testing.T) {
	c, _ := newTestConsole()
	assert.Contains(t, exec(t, c, "help"), "set-interval <job> <seconds>")
	assert.Contains(t, exec(t, c, "frobnicate"), `unknown command "frobnicate"`)
	assert.Empty(t, exec(t, c, "   "))
}

func TestQuit(t *testing.T) {
	c, _ := newTestConsole()
	for _, line := range []string{"quit", "exit", "q"} {
		assert.ErrorIs(t, c.Execute(context.Background(), line, io.Discard), ErrQuit)
	}
}

func TestRun_ClosedInputKeepsServiceRunning(t *testing.T) {
	c, _ := newTestConsole()
	out := &syncBuffer{}
	c.stdin = io.NopCloser(strings.NewReader("list-jobs\n"))
	c.stdout = out

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := c.Run(ctx)
	require.NoError(t, err)
	assert.False(t, errors.Is(err, ErrQuit))
	assert.Contains(t, out.String(), "earthquake")
}

func TestRun_QuitCommand(t *testing.T) {
	c, _ := newTestConsole()
	c.stdin = io.NopCloser(strings.NewReader("quit\n"))
	c.stdout = io.Discard

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.ErrorIs(t, c.Run(ctx), ErrQuit)
}

// syncBuffer guards writes coming from the line reader's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
