package runner

import (
	"log/slog"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProfile sets the dialog heuristics (owners, role markers, buttons, keywords).
func WithProfile(profile domain.DialogProfile) Option {
	return func(r *Runner) {
		r.profile = profile
	}
}

// WithLifecycleHooks registers observability hooks for dispatches and injections.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}
