package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/internal/uitree"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Classifier decides the input for a screen and advances the phase.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, bool)
	Phase() domain.Phase
}

// Result describes what a single dispatch did.
type Result struct {
	Outcome   domain.Outcome
	Phase     domain.Phase
	Text      string
	Input     string
	Filled    int
	Activated bool
	Button    string
	Err       error // host action failures; never stops the loop
}

// Runner sequences scanner, classifier and injector for every notification.
type Runner struct {
	classifier Classifier
	profile    domain.DialogProfile
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	scanner  *uitree.Scanner
	injector *uitree.Injector
}

// New creates a Runner driving the given classifier.
func New(c Classifier, opts ...Option) *Runner {
	r := &Runner{
		classifier: c,
		profile:    domain.DefaultDialogProfile(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.scanner = uitree.NewScanner(r.profile)
	r.injector = uitree.NewInjector(r.profile.ConfirmKeywords)
	return r
}

// Run receives events until the channel is closed or ctx is done.
// Each event is handled to completion before the next one is received.
func (r *Runner) Run(ctx context.Context, events <-chan ports.Event) error {
	for {
		if err := ctx.Err(); err != nil {
			drain(events)
			return err
		}
		select {
		case <-ctx.Done():
			drain(events)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(ctx, ev)
		}
	}
}

// drain releases sources of events already queued when the loop stops.
func drain(events <-chan ports.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Source != nil {
				ev.Source.Release()
			}
		default:
			return
		}
	}
}

// Handle processes one event. The event's source is released before returning.
func (r *Runner) Handle(ctx context.Context, ev ports.Event) (res Result) {
	start := time.Now()
	if ev.Source != nil {
		defer ev.Source.Release()
	}
	defer func() {
		res.Phase = r.classifier.Phase()
		r.logger.DebugContext(ctx, "event dispatched", "kind", ev.Kind, "outcome", res.Outcome, "phase", res.Phase)
		if r.hooks.OnDispatch != nil {
			r.hooks.OnDispatch(ctx, &domain.DispatchEvent{
				Timestamp: start,
				Kind:      ev.Kind,
				Outcome:   res.Outcome,
				Phase:     res.Phase,
				Text:      res.Text,
				Duration:  time.Since(start),
			})
		}
	}()

	if ev.Kind != domain.EventSurfaceChanged && ev.Kind != domain.EventContentChanged {
		res.Outcome = domain.OutcomeIgnored
		return res
	}
	if ev.Source == nil {
		res.Outcome = domain.OutcomeNoSource
		return res
	}
	if !r.scanner.IsDialog(ev.Source) {
		res.Outcome = domain.OutcomeNotDialog
		return res
	}

	res.Text = r.scanner.ExtractText(ev.Source)
	if res.Text == "" {
		res.Outcome = domain.OutcomeEmptyText
		return res
	}

	input, ok := r.classifier.Classify(ctx, res.Text)
	if !ok {
		res.Outcome = domain.OutcomeNoInput
		return res
	}
	res.Outcome = domain.OutcomeInjected
	res.Input = input
	r.inject(ctx, ev.Source, &res)
	return res
}

func (r *Runner) inject(ctx context.Context, root ports.Node, res *Result) {
	controls := r.scanner.Discover(root)
	defer controls.Release()

	filled, fillErr := r.injector.Fill(ctx, controls.Fields, res.Input)
	if fillErr != nil {
		r.logger.WarnContext(ctx, "failed to fill dialog input", "err", fillErr)
	}
	button, activated, clickErr := r.injector.Confirm(ctx, controls.Buttons)
	if clickErr != nil {
		r.logger.WarnContext(ctx, "failed to activate confirm button", "button", button, "err", clickErr)
	}
	res.Filled, res.Activated, res.Button = filled, activated, button
	res.Err = errors.Join(fillErr, clickErr)

	r.logger.InfoContext(ctx, "input injected",
		"phase", r.classifier.Phase(),
		"fields", filled,
		"button", button,
		"activated", activated,
	)
	if r.hooks.OnInject != nil {
		r.hooks.OnInject(ctx, &domain.InjectEvent{
			Timestamp: time.Now(),
			Phase:     r.classifier.Phase(),
			Fields:    filled,
			Activated: activated,
			Button:    button,
			IsError:   res.Err != nil,
		})
	}
}
