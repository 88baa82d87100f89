package ports

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Event is a single screen-change notification.
// Source, when non-nil, is an acquired handle owned by the receiver.
type Event struct {
	Kind   domain.EventKind
	Source Node
}

// Host delivers notifications in the order they happened.
type Host interface {
	// Events starts the notification stream. The channel is closed when the
	// host has nothing more to deliver or ctx is done.
	Events(ctx context.Context) (<-chan Event, error)
}

// Dialer opens the telecom session the pilot will drive.
type Dialer interface {
	// Dial places a call to target (a menu code like "*99#" or a phone number).
	Dial(ctx context.Context, target string) error
}
