package memory

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Screen is one scripted notification. A nil Tree delivers an event without a source.
type Screen struct {
	Kind domain.EventKind
	Tree *Tree
}

// Host replays a fixed list of screens, in order, then closes the stream.
type Host struct {
	screens []Screen
}

// NewHost creates a host that delivers the given screens.
func NewHost(screens ...Screen) *Host {
	return &Host{screens: screens}
}

// Events implements ports.Host.
func (h *Host) Events(ctx context.Context) (<-chan ports.Event, error) {
	out := make(chan ports.Event)
	go func() {
		defer close(out)
		for _, sc := range h.screens {
			if ctx.Err() != nil {
				return
			}
			ev := ports.Event{Kind: sc.Kind}
			if sc.Tree != nil {
				ev.Source = sc.Tree.Root()
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				if ev.Source != nil {
					ev.Source.Release()
				}
				return
			}
		}
	}()
	return out, nil
}
