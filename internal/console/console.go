// Package console is the line-oriented operator interface: inspect jobs,
// change intervals and trigger collection by hand.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"
	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/pipeline"
	"github.com/couchcryptid/disaster-rtd-service/internal/scheduler"
)

// Scheduler is the subset of the job scheduler the console drives.
type Scheduler interface {
	List() map[string]time.Duration
	Names() []string
	SetInterval(name string, interval time.Duration) bool
	Trigger(ctx context.Context, name string) error
	Status() []scheduler.JobStatus
}

// StatsSource reports per-source ingest statistics.
type StatsSource interface {
	Stats() []pipeline.SourceStats
}

// Counter reports stored records per hazard.
type Counter interface {
	CountByHazard(ctx context.Context) (map[domain.HazardCode]int64, error)
}

// Console executes operator commands.
type Console struct {
	sched   Scheduler
	stats   StatsSource
	counter Counter
	hazards map[domain.HazardCode]string
	logger  *slog.Logger

	// Terminal streams; nil means the process's own.
	stdin  io.ReadCloser
	stdout io.Writer
}

// New creates a console. hazards maps each hazard code to the job that
// collects it so "run heavy_rain" triggers the warning job. stats and
// counter may be nil.
func New(sched Scheduler, stats StatsSource, counter Counter, hazards map[domain.HazardCode]string, logger *slog.Logger) *Console {
	return &Console{sched: sched, stats: stats, counter: counter, hazards: hazards, logger: logger}
}

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Execute runs one command line, writing output to w.
func (c *Console) Execute(ctx context.Context, line string, w io.Writer) error {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "list-jobs", "list_intervals":
		c.listJobs(w)
	case "set-interval", "set_interval":
		c.setInterval(w, fields[1:])
	case "run":
		c.run(ctx, w, fields[1:])
	case "status":
		c.status(ctx, w)
	case "help", "?":
		printHelp(w)
	case "quit", "exit", "q":
		return ErrQuit
	default:
		fmt.Fprintf(w, "unknown command %q, type help for the command list\n", cmd)
	}
	return nil
}

func (c *Console) listJobs(w io.Writer) {
	jobs := c.sched.List()
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tINTERVAL")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, jobs[name])
	}
	_ = tw.Flush()
}

func (c *Console) setInterval(w io.Writer, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(w, "usage: set-interval <job> <seconds>")
		return
	}
	secs, err := strconv.Atoi(args[1])
	if err != nil || secs <= 0 {
		fmt.Fprintln(w, "interval must be a positive number of seconds")
		return
	}
	interval := time.Duration(secs) * time.Second
	if !c.sched.SetInterval(args[0], interval) {
		fmt.Fprintf(w, "unknown job %q\n", args[0])
		return
	}
	fmt.Fprintf(w, "%s now runs every %s\n", args[0], interval)
}

func (c *Console) run(ctx context.Context, w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "usage: run <job|hazard|all>")
		return
	}

	var jobs []string
	if strings.EqualFold(args[0], "all") {
		jobs = c.sched.Names()
	} else {
		job, err := c.resolveJob(args[0])
		if err != nil {
			fmt.Fprintln(w, err)
			return
		}
		jobs = []string{job}
	}

	for _, job := range jobs {
		start := time.Now()
		fmt.Fprintf(w, "running %s...\n", job)
		if err := c.sched.Trigger(ctx, job); err != nil {
			fmt.Fprintf(w, "%s failed: %v\n", job, err)
			continue
		}
		fmt.Fprintf(w, "%s finished in %s\n", job, time.Since(start).Round(time.Millisecond))
	}
}

// resolveJob accepts a job name, a hazard name or a numeric hazard code.
func (c *Console) resolveJob(arg string) (string, error) {
	if _, ok := c.sched.List()[arg]; ok {
		return arg, nil
	}
	code, err := domain.ParseHazardCode(arg)
	if err != nil {
		return "", fmt.Errorf("unknown job or hazard %q", arg)
	}
	job, ok := c.hazards[code]
	if !ok {
		return "", fmt.Errorf("no job collects hazard %s", code)
	}
	return job, nil
}

func (c *Console) status(ctx context.Context, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tINTERVAL\tRUNS\tFAILURES\tLAST RUN\tOUTCOME")
	for _, s := range c.sched.Status() {
		last := "-"
		if !s.LastRunAt.IsZero() {
			last = s.LastRunAt.In(domain.KST).Format("2006-01-02 15:04:05")
		}
		outcome := s.LastOutcome
		if s.Running {
			outcome = "running"
		}
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", s.Name, s.Interval, s.Runs, s.Failures, last, outcome)
	}
	_ = tw.Flush()

	if c.stats != nil {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tFETCHED\tINSERTED\tDUPLICATES\tDROPPED\tLAST ERROR")
		for _, s := range c.stats.Stats() {
			lastErr := s.LastError
			if lastErr == "" {
				lastErr = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", s.Source, s.Fetched, s.Inserted, s.Duplicates, s.Dropped, lastErr)
		}
		_ = tw.Flush()
	}

	if c.counter != nil {
		counts, err := c.counter.CountByHazard(ctx)
		if err != nil {
			fmt.Fprintf(w, "\nstored record counts unavailable: %v\n", err)
			return
		}
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "HAZARD\tCODE\tSTORED")
		for _, code := range domain.HazardCodes() {
			fmt.Fprintf(tw, "%s\t%d\t%d\n", code, int(code), counts[code])
		}
		_ = tw.Flush()
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `commands:
  list-jobs                       show registered jobs and their intervals
  set-interval <job> <seconds>    change a job's interval
  run <job|hazard|all>            collect now (e.g. run earthquake, run 32, run all)
  status                          job history, ingest counters and stored totals
  help                            this list
  quit                            stop the service
`)
}

// Interactive reports whether stdin and stdout are a terminal.
func Interactive() bool {
	return readline.DefaultIsTerminal()
}

// Run reads commands from the terminal until quit, EOF or ctx ends. It
// returns ErrQuit only when the operator asked to stop; closed input ends
// the console and leaves the service running.
func (c *Console) Run(ctx context.Context) error {
	cfg := &readline.Config{
		Prompt:          "rtd> ",
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		Stdin:           c.stdin,
		Stdout:          c.stdout,
	}
	if c.stdin != nil {
		cfg.FuncIsTerminal = func() bool { return false }
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("start console: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	printHelp(rl.Stdout())
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return ErrQuit
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			if ctx.Err() == nil {
				c.logger.Info("console input closed")
			}
			return nil
		}
		if err != nil {
			return err
		}

		if err := c.Execute(ctx, line, rl.Stdout()); err != nil {
			return err
		}
	}
}

func (c *Console) completer() *readline.PrefixCompleter {
	jobs := func(string) []string { return c.sched.Names() }
	return readline.NewPrefixCompleter(
		readline.PcItem("list-jobs"),
		readline.PcItem("set-interval", readline.PcItemDynamic(jobs)),
		readline.PcItem("run", readline.PcItemDynamic(func(s string) []string { return append(jobs(s), "all") })),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
