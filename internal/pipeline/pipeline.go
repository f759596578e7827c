// Package pipeline drives a bulk submission run: filter, order, submit,
// record, summarize.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jmartens/bulkcrawl/internal/classify"
	"github.com/jmartens/bulkcrawl/internal/client"
	"github.com/jmartens/bulkcrawl/internal/clock/system"
	"github.com/jmartens/bulkcrawl/internal/config"
	"github.com/jmartens/bulkcrawl/internal/id/uuid"
	"github.com/jmartens/bulkcrawl/internal/metrics"
	"github.com/jmartens/bulkcrawl/internal/schedule"
)

// Submitter is the remote crawler surface the pipeline depends on.
type Submitter interface {
	Health(ctx context.Context) error
	Submit(ctx context.Context, req client.Request) error
}

// ProgressStore persists the set of already-submitted URLs across runs.
type ProgressStore interface {
	Load() (map[string]struct{}, error)
	Record(url string) error
	Clear() error
	Path() string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// State names the pipeline phases. Transitions only move forward and each
// state is entered at most once per run.
type State string

// Pipeline states in order.
const (
	StateIdle        State = "idle"
	StateFiltering   State = "filtering"
	StateOrdering    State = "ordering"
	StateSubmitting  State = "submitting"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
)

// Options are the per-invocation knobs from the command line.
type Options struct {
	InputFile string
	DryRun    bool
	Limit     int
	NoResume  bool
}

// Summary accounts for every input URL: each ends the run as already-done,
// skipped-with-reason, submitted, failed, or deferred by the limit.
type Summary struct {
	RunID       string
	TotalInput  int
	AlreadyDone int
	Skipped     int
	SkipReasons map[string]int
	Processed   int
	Submitted   int
	Failed      int
	Elapsed     time.Duration
}

// Engine runs the submission pipeline. One Engine serves one run.
type Engine struct {
	cfg        config.Config
	classifier *classify.Classifier
	store      ProgressStore
	submitter  Submitter
	clock      Clock
	pacer      *Pacer
	logger     *zap.Logger
	opts       Options

	runID string
	state State
}

// New constructs an Engine for a single run.
func New(
	cfg config.Config,
	classifier *classify.Classifier,
	store ProgressStore,
	submitter Submitter,
	clk Clock,
	logger *zap.Logger,
	opts Options,
) (*Engine, error) {
	if clk == nil {
		clk = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID, err := uuid.NewUUIDGenerator().NewID()
	if err != nil {
		return nil, fmt.Errorf("assign run id: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		classifier: classifier,
		store:      store,
		submitter:  submitter,
		clock:      clk,
		pacer:      NewPacer(cfg.SubmissionDelay(), cfg.BatchDelay(), cfg.BatchSize),
		logger:     logger.With(zap.String("run_id", runID)),
		opts:       opts,
		runID:      runID,
		state:      StateIdle,
	}, nil
}

// State reports the current pipeline phase.
func (e *Engine) State() State {
	return e.state
}

// Run executes the pipeline to completion. Fatal errors (service unhealthy,
// unreadable input or progress log, broken durability) abort the run;
// per-URL submission failures are counted and never stop it.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	start := e.clock.Now()
	sum := Summary{RunID: e.runID, SkipReasons: make(map[string]int)}

	if !e.opts.DryRun {
		if err := e.preflight(ctx); err != nil {
			return sum, err
		}
	}

	urls, err := ReadURLFile(e.opts.InputFile)
	if err != nil {
		return sum, err
	}
	sum.TotalInput = len(urls)
	e.logger.Info("loaded input URLs",
		zap.String("path", e.opts.InputFile),
		zap.Int("count", len(urls)))

	done, err := e.loadProgress()
	if err != nil {
		return sum, err
	}
	if len(done) > 0 {
		e.logger.Info("resuming previous run", zap.Int("already_done", len(done)))
	}

	accepted := e.filter(urls, done, &sum)
	ordered := e.order(accepted)

	if len(ordered) == 0 {
		e.logger.Info("nothing to submit")
		e.state = StateSubmitting
		return e.summarize(start, sum), nil
	}

	if err := e.submitAll(ctx, ordered, &sum); err != nil {
		return sum, err
	}

	return e.summarize(start, sum), nil
}

// preflight probes the crawler once; an unhealthy service aborts the run
// before any filtering or submission work.
func (e *Engine) preflight(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, e.cfg.HealthTimeout())
	defer cancel()
	if err := e.submitter.Health(hctx); err != nil {
		return fmt.Errorf("pre-flight health check: %w", err)
	}
	e.logger.Info("crawler is healthy", zap.String("crawler_url", e.cfg.CrawlerURL))
	return nil
}

func (e *Engine) loadProgress() (map[string]struct{}, error) {
	if e.opts.NoResume {
		if e.opts.DryRun {
			// Ignore prior progress without clearing it; dry runs never
			// mutate persisted state.
			return map[string]struct{}{}, nil
		}
		if err := e.store.Clear(); err != nil {
			return nil, fmt.Errorf("discard previous progress: %w", err)
		}
		return map[string]struct{}{}, nil
	}
	done, err := e.store.Load()
	if err != nil {
		// No resume is worse than no run: a partial set would resubmit
		// completed work without bound.
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return done, nil
}

func (e *Engine) filter(urls []string, done map[string]struct{}, sum *Summary) []string {
	e.state = StateFiltering
	accepted := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := done[u]; ok {
			sum.AlreadyDone++
			continue
		}
		d := e.classifier.Classify(u)
		if d.Skip {
			sum.Skipped++
			sum.SkipReasons[d.Reason]++
			metrics.ObserveSkip(d.Reason)
			e.logger.Debug("skipping url", zap.String("url", u), zap.String("reason", d.Reason))
			continue
		}
		accepted = append(accepted, u)
	}

	e.logger.Info("filtered input",
		zap.Int("skipped", sum.Skipped),
		zap.Int("already_done", sum.AlreadyDone),
		zap.Int("remaining", len(accepted)))
	for _, rc := range topSkipReasons(sum.SkipReasons, 5) {
		e.logger.Info("skip reason", zap.String("reason", rc.reason), zap.Int("count", rc.count))
	}
	return accepted
}

func (e *Engine) order(accepted []string) []string {
	e.state = StateOrdering
	groups := schedule.Group(accepted)
	ordered := groups.Interleave()
	e.logger.Info("organized by domain", zap.Int("domains", groups.Len()))

	// The limit is a prefix of the interleaved order, applied strictly after
	// interleaving so fairness is preserved within the cap.
	if e.opts.Limit > 0 && len(ordered) > e.opts.Limit {
		ordered = ordered[:e.opts.Limit]
		e.logger.Info("limited submission count", zap.Int("limit", e.opts.Limit))
	}
	return ordered
}

func (e *Engine) submitAll(ctx context.Context, ordered []string, sum *Summary) error {
	e.state = StateSubmitting
	e.logger.Info("starting submissions",
		zap.Int("count", len(ordered)),
		zap.Duration("item_delay", e.cfg.SubmissionDelay()),
		zap.Duration("batch_delay", e.cfg.BatchDelay()),
		zap.Int("batch_size", e.cfg.BatchSize),
		zap.Bool("dry_run", e.opts.DryRun))

	e.pacer.Begin()
	for i, u := range ordered {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
		if err := e.submitOne(ctx, i, len(ordered), u, sum); err != nil {
			return err
		}
		sum.Processed++

		// No pacing after the final URL.
		if i == len(ordered)-1 {
			continue
		}
		if e.pacer.IsBatchBoundary(i + 1) {
			e.logger.Info("batch pause", zap.Duration("delay", e.cfg.BatchDelay()))
		}
		if err := e.pacer.Pause(ctx, i+1); err != nil {
			return err
		}
	}
	return nil
}

// submitOne performs a single submission. Only infrastructure problems
// (progress log durability) return an error; remote failures are counted
// and the run moves on.
func (e *Engine) submitOne(ctx context.Context, i, total int, u string, sum *Summary) error {
	browser := e.cfg.UseBrowser || e.classifier.NeedsBrowser(u)
	e.logger.Info("submitting",
		zap.String("progress", fmt.Sprintf("%d/%d", i+1, total)),
		zap.String("domain", classify.Domain(u)),
		zap.Bool("browser", browser),
		zap.String("url", u))

	if e.opts.DryRun {
		// Counted as submitted, but nothing is sent and nothing is persisted.
		sum.Submitted++
		return nil
	}

	started := e.clock.Now()
	err := e.submitter.Submit(ctx, client.Request{
		URL:        u,
		MaxPages:   e.cfg.MaxPagesPerURL,
		SameDomain: e.cfg.SameDomain,
		UseBrowser: browser,
	})
	elapsed := e.clock.Now().Sub(started)
	if err != nil {
		sum.Failed++
		metrics.ObserveSubmission("failed", elapsed)
		e.logger.Warn("submission failed", zap.String("url", u), zap.Error(err))
		return nil
	}

	// The submission only counts as complete-for-resume once the append is
	// durable; losing that guarantee mid-run is fatal.
	if err := e.store.Record(u); err != nil {
		return fmt.Errorf("record progress for %s: %w", u, err)
	}
	sum.Submitted++
	metrics.ObserveSubmission("submitted", elapsed)
	return nil
}

func (e *Engine) summarize(start time.Time, sum Summary) Summary {
	e.state = StateSummarizing
	sum.Elapsed = e.clock.Now().Sub(start)

	fields := []zap.Field{
		zap.Int("total_input", sum.TotalInput),
		zap.Int("already_done", sum.AlreadyDone),
		zap.Int("skipped", sum.Skipped),
		zap.Int("processed", sum.Processed),
		zap.Int("submitted", sum.Submitted),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", sum.Elapsed),
	}
	if !e.opts.DryRun {
		fields = append(fields, zap.String("progress_file", e.store.Path()))
	}
	e.logger.Info("run complete", fields...)

	e.state = StateDone
	return sum
}

type reasonCount struct {
	reason string
	count  int
}

// topSkipReasons returns the n most common reasons, most frequent first,
// ties broken alphabetically for stable output.
func topSkipReasons(reasons map[string]int, n int) []reasonCount {
	out := make([]reasonCount, 0, len(reasons))
	for reason, count := range reasons {
		out = append(out, reasonCount{reason: reason, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].reason < out[j].reason
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
