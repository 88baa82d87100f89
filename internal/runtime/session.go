package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Session is the phase state machine for one automated payment.
//
// Classify is expected to be called from a single dispatch loop. The mutex only
// protects readers polling the observation surface from other goroutines.
type Session struct {
	mu        sync.RWMutex
	phase     domain.Phase
	request   *domain.PaymentRequest
	updatedAt time.Time

	rules  []Rule
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Session.
type Option func(*Session)

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option {
	return func(s *Session) {
		s.rules = rules
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates an idle, disarmed session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		rules:  DefaultRules(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.phase = domain.PhaseIdle
	s.updatedAt = s.now()
	return s
}

// Reset returns the session to Idle and drops the armed request.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	prev := s.phase
	s.phase = domain.PhaseIdle
	s.request = nil
	s.updatedAt = s.now()
	at := s.updatedAt
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "session reset")
	s.changed(ctx, at, prev, domain.PhaseIdle, "")
}

// Arm resets the session and attaches req. It reports whether an in-flight
// payment was overwritten; the last arm always wins.
func (s *Session) Arm(ctx context.Context, req domain.PaymentRequest) bool {
	s.mu.Lock()
	prev := s.phase
	overwritten := s.request != nil && prev != domain.PhaseIdle && !prev.IsTerminal()
	s.phase = domain.PhaseIdle
	s.request = &req
	s.updatedAt = s.now()
	at := s.updatedAt
	s.mu.Unlock()

	if overwritten {
		s.logger.WarnContext(ctx, "arming over an unfinished payment", "phase", prev)
	}
	s.logger.InfoContext(ctx, "payment armed", "amount", req.Amount, "destination", req.DestinationID)
	s.changed(ctx, at, prev, domain.PhaseIdle, "")
	return overwritten
}

// Classify decides which phase the screen text belongs to and returns the input
// to submit for it. ok is false when nothing should be submitted.
func (s *Session) Classify(ctx context.Context, text string) (input string, ok bool) {
	s.mu.Lock()
	if s.request == nil || s.phase.IsTerminal() {
		s.mu.Unlock()
		return "", false
	}

	rule, keyword, matched := matchRule(s.rules, text)
	if !matched {
		s.mu.Unlock()
		return "", false
	}

	from := s.phase
	s.phase = rule.Phase
	s.updatedAt = s.now()
	if rule.Reply != nil {
		input, ok = rule.Reply(*s.request), true
	}
	at := s.updatedAt
	s.mu.Unlock()

	if from != rule.Phase {
		s.logger.InfoContext(ctx, "phase changed", "from", from, "to", rule.Phase, "keyword", keyword)
	}
	s.changed(ctx, at, from, rule.Phase, keyword)
	return input, ok
}

// changed fires OnPhaseChange when from and to differ. Resets and arms report
// an empty keyword. Must be called without holding mu.
func (s *Session) changed(ctx context.Context, at time.Time, from, to domain.Phase, keyword string) {
	if from == to || s.hooks.OnPhaseChange == nil {
		return
	}
	s.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
		Timestamp: at,
		From:      from,
		To:        to,
		Keyword:   keyword,
	})
}

// Phase returns the active phase.
func (s *Session) Phase() domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Request returns a copy of the armed request.
func (s *Session) Request() (domain.PaymentRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.request == nil {
		return domain.PaymentRequest{}, false
	}
	return *s.request, true
}

// Snapshot returns a consistent copy of phase and request.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Snapshot{Phase: s.phase, UpdatedAt: s.updatedAt}
	if s.request != nil {
		req := *s.request
		snap.Request = &req
	}
	return snap
}
