package adb

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Host implements ports.Host by polling the device hierarchy. A change of the
// top package is reported as a surface change, any other change of the dump
// as a content change. Identical dumps produce nothing.
type Host struct {
	client   *Client
	interval time.Duration
	logger   *slog.Logger
}

// HostOption configures the Host.
type HostOption func(*Host)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) HostOption {
	return func(h *Host) {
		h.interval = d
	}
}

// WithHostLogger sets the host logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a polling host for the client's device.
func NewHost(client *Client, opts ...HostOption) *Host {
	h := &Host{
		client:   client,
		interval: 500 * time.Millisecond,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Events implements ports.Host. It fails immediately when the device cannot be reached.
func (h *Host) Events(ctx context.Context) (<-chan ports.Event, error) {
	if err := h.client.Check(ctx); err != nil {
		return nil, err
	}

	out := make(chan ports.Event)
	go func() {
		defer close(out)

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		var lastPkg string
		var lastRaw []byte
		for {
			if ev, ok := h.poll(ctx, &lastPkg, &lastRaw); ok {
				select {
				case out <- ev:
				case <-ctx.Done():
					ev.Source.Release()
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, nil
}

func (h *Host) poll(ctx context.Context, lastPkg *string, lastRaw *[]byte) (ports.Event, bool) {
	data, err := h.client.Dump(ctx)
	if err != nil {
		if ctx.Err() == nil {
			h.logger.WarnContext(ctx, "hierarchy dump failed", "err", err)
		}
		return ports.Event{}, false
	}
	screen, err := ParseScreen(h.client, data)
	if err != nil {
		h.logger.WarnContext(ctx, "hierarchy parse failed", "err", err)
		return ports.Event{}, false
	}

	kind := domain.EventContentChanged
	switch {
	case *lastRaw == nil || screen.Package() != *lastPkg:
		kind = domain.EventSurfaceChanged
	case bytes.Equal(screen.Raw(), *lastRaw):
		return ports.Event{}, false
	}
	*lastPkg, *lastRaw = screen.Package(), screen.Raw()

	h.logger.DebugContext(ctx, "screen changed", "kind", kind, "package", screen.Package())
	return ports.Event{Kind: kind, Source: screen.Root()}, true
}
