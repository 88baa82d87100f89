package ussdpilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/internal/metrics"
	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
)

// Version is the build version, overridden with -ldflags at release time.
var Version = "dev"

// DefaultSessionKey is the store key used when none is configured.
const DefaultSessionKey = "default"

// Pilot is the high-level entry point. It owns the session, dispatches host
// notifications through the runner and publishes snapshots to a store.
type Pilot struct {
	session *runtime.Session
	runner  *runner.Runner
	metrics *metrics.Collectors

	store      ports.SnapshotStore
	publishMu  sync.Mutex
	sessionKey string
	profile    domain.DialogProfile
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time

	runtimeMetrics bool
}

// Option defines a functional option for configuring the Pilot.
type Option func(*Pilot)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pilot) {
		p.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pilot) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStore publishes every snapshot change to store.
func WithStore(store ports.SnapshotStore) Option {
	return func(p *Pilot) {
		p.store = store
	}
}

// WithSessionKey sets the key snapshots are stored under.
func WithSessionKey(key string) Option {
	return func(p *Pilot) {
		p.sessionKey = key
	}
}

// WithDialogProfile overrides the dialog recognition allowlists.
func WithDialogProfile(profile domain.DialogProfile) Option {
	return func(p *Pilot) {
		p.profile = profile
	}
}

// WithRuntimeMetrics adds Go runtime and process collectors to the gatherer.
func WithRuntimeMetrics() Option {
	return func(p *Pilot) {
		p.runtimeMetrics = true
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pilot) {
		p.now = now
	}
}

// New creates an idle, disarmed Pilot.
func New(opts ...Option) *Pilot {
	p := &Pilot{
		sessionKey: DefaultSessionKey,
		profile:    domain.DefaultDialogProfile(),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("session", p.sessionKey)
	p.metrics = metrics.New(p.runtimeMetrics)

	hooks := domain.MergeHooks(
		p.metrics.Hooks(),
		domain.LifecycleHooks{OnPhaseChange: func(ctx context.Context, _ *domain.PhaseEvent) {
			p.publish(ctx)
		}},
		p.hooks,
	)

	p.session = runtime.NewSession(
		runtime.WithLifecycleHooks(hooks),
		runtime.WithLogger(p.logger),
		runtime.WithClock(p.now),
	)
	p.runner = runner.New(p.session,
		runner.WithLifecycleHooks(hooks),
		runner.WithLogger(p.logger),
		runner.WithProfile(p.profile),
	)
	return p
}

// Arm validates req and attaches it to a freshly reset session.
// Arming over an unfinished payment replaces it.
func (p *Pilot) Arm(ctx context.Context, req domain.PaymentRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	p.session.Arm(ctx, req)
	return p.publish(ctx)
}

// Reset returns the session to Idle and drops the armed payment.
func (p *Pilot) Reset(ctx context.Context) error {
	p.session.Reset(ctx)
	return p.publish(ctx)
}

// Restore re-arms the payment found in the store, if it was still in flight.
// The flow restarts from Idle since the dialog it was in is gone.
func (p *Pilot) Restore(ctx context.Context) (bool, error) {
	if p.store == nil {
		return false, nil
	}
	snap, err := p.store.Load(ctx, p.sessionKey)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !snap.Armed() || snap.Terminal() {
		return false, nil
	}
	return true, p.Arm(ctx, *snap.Request)
}

// Start dials target to open the menu session for the armed payment.
func (p *Pilot) Start(ctx context.Context, dialer ports.Dialer, target string) error {
	if !p.Snapshot().Armed() {
		return domain.ErrNotArmed
	}
	return p.Dial(ctx, dialer, target)
}

// Dial opens a menu session without requiring an armed payment. A disarmed
// pilot only observes the dialogs, which is how balance checks run.
func (p *Pilot) Dial(ctx context.Context, dialer ports.Dialer, target string) error {
	p.logger.InfoContext(ctx, "dialing", "target", target, "armed", p.Snapshot().Armed())
	if err := dialer.Dial(ctx, target); err != nil {
		return fmt.Errorf("failed to dial %s: %w", target, err)
	}
	return nil
}

// Run consumes host notifications until the host closes its stream or ctx is done.
func (p *Pilot) Run(ctx context.Context, host ports.Host) error {
	events, err := host.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to open host events: %w", err)
	}
	return p.runner.Run(ctx, events)
}

// Handle processes a single notification.
func (p *Pilot) Handle(ctx context.Context, ev ports.Event) runner.Result {
	return p.runner.Handle(ctx, ev)
}

// Snapshot returns a consistent copy of the session.
func (p *Pilot) Snapshot() domain.Snapshot {
	return p.session.Snapshot()
}

// Gatherer exposes the pilot's metrics.
func (p *Pilot) Gatherer() prometheus.Gatherer {
	return p.metrics.Gatherer()
}

// SessionKey returns the key snapshots are stored under.
func (p *Pilot) SessionKey() string {
	return p.sessionKey
}

func (p *Pilot) publish(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	// Snapshot and save under one lock so an older snapshot never lands last.
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	if err := p.store.Save(ctx, p.sessionKey, p.session.Snapshot()); err != nil {
		p.logger.WarnContext(ctx, "failed to publish snapshot", "err", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
