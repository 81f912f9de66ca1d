// Package orchestrator runs one complete briefing: news, weather and calendar
// in parallel under a single deadline, then assembly and delivery.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"morningbrief/briefing"
	"morningbrief/delivery"
	"morningbrief/events"
	"morningbrief/news"
	"morningbrief/types"
)

// NewsRunner runs the news stages
type NewsRunner interface {
	Run(ctx context.Context) news.Result
}

// WeatherSource returns current conditions
type WeatherSource interface {
	Current(ctx context.Context) (*types.Weather, error)
}

// CalendarSource returns today's events
type CalendarSource interface {
	Today(ctx context.Context, now time.Time) ([]types.CalendarEvent, error)
}

// EventPublisher reports run lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, ev events.RunEvent) error
}

// Options wires the collaborators. Everything but News is optional.
type Options struct {
	News      NewsRunner
	Weather   WeatherSource
	Calendar  CalendarSource
	Deliverer delivery.Deliverer
	// DryRunDeliverer replaces Deliverer for dry runs
	DryRunDeliverer delivery.Deliverer
	Events          EventPublisher
	// Deadline bounds news, weather and calendar together
	Deadline time.Duration
	Logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// Orchestrator runs briefings
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	if opts.newID == nil {
		opts.newID = func() string { return uuid.NewString() }
	}
	return &Orchestrator{opts: opts, logger: opts.Logger.With("component", "orchestrator")}
}

// Report is the outcome of RunOnce
type Report struct {
	Briefing    *types.Briefing
	DeliveryErr error
}

// RunParams selects the run id and delivery mode of one run
type RunParams struct {
	// RunID is generated when empty
	RunID  string
	DryRun bool
}

// NewRunID returns a fresh run id
func (o *Orchestrator) NewRunID() string { return o.opts.newID() }

// RunOnce executes a single end-to-end cycle with a generated run id.
func (o *Orchestrator) RunOnce(ctx context.Context) (*Report, error) {
	return o.Run(ctx, RunParams{})
}

// Run executes one cycle. The briefing is always assembled; the returned
// error is the delivery failure, if any.
func (o *Orchestrator) Run(ctx context.Context, p RunParams) (*Report, error) {
	runID := p.RunID
	if runID == "" {
		runID = o.opts.newID()
	}
	started := o.opts.now()
	logger := o.logger.With("run_id", runID)
	logger.Info("briefing run started", "dry_run", p.DryRun)
	o.publish(ctx, events.RunEvent{RunID: runID, Status: events.RunStarted, At: started})

	runCtx := ctx
	if o.opts.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.opts.Deadline)
		defer cancel()
	}

	in := briefing.Input{RunID: runID, GeneratedAt: started}

	// Every branch records its own outcome and returns nil so one failure never cancels the others
	var g errgroup.Group
	g.Go(func() error {
		res := o.opts.News.Run(runCtx)
		in.Articles = res.Articles
		in.Diagnostics = res.Diagnostics
		return nil
	})
	if o.opts.Weather != nil {
		g.Go(func() error {
			in.Weather, in.WeatherErr = o.opts.Weather.Current(runCtx)
			return nil
		})
	}
	if o.opts.Calendar != nil {
		g.Go(func() error {
			evs, err := o.opts.Calendar.Today(runCtx, started)
			if err == nil && evs == nil {
				evs = []types.CalendarEvent{}
			}
			in.Events, in.CalendarErr = evs, err
			return nil
		})
	}
	_ = g.Wait()

	b := briefing.Assemble(in, logger)
	report := &Report{Briefing: b}

	deliverer := o.opts.Deliverer
	if p.DryRun {
		deliverer = o.opts.DryRunDeliverer
	}
	if deliverer != nil {
		if err := deliverer.Deliver(ctx, b); err != nil {
			report.DeliveryErr = fmt.Errorf("failed to deliver briefing: %w", err)
		}
	}

	ev := events.RunEvent{RunID: runID, Status: events.RunCompleted, Diagnostics: &b.Diagnostics, At: o.opts.now()}
	if report.DeliveryErr != nil {
		ev.Status = events.RunFailed
		ev.Error = report.DeliveryErr.Error()
	}
	o.publish(ctx, ev)

	logger.Info("briefing run finished",
		"duration", o.opts.now().Sub(started).Round(time.Millisecond),
		"articles", len(b.Articles),
		"degraded", b.Diagnostics.Degraded(),
		"delivered", report.DeliveryErr == nil)
	return report, report.DeliveryErr
}

func (o *Orchestrator) publish(ctx context.Context, ev events.RunEvent) {
	if o.opts.Events == nil {
		return
	}
	if err := o.opts.Events.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Warn("failed to publish run event", "run_id", ev.RunID, "status", ev.Status, "error", err)
	}
}
