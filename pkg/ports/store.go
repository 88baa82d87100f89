package ports

import (
	"context"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// SnapshotStore defines the interface for persisting the session snapshot so that
// displays running elsewhere can observe the automation.
type SnapshotStore interface {
	// Save persists the snapshot under the given key.
	Save(ctx context.Context, key string, snap domain.Snapshot) error

	// Load retrieves the snapshot for a key.
	// Returns domain.ErrSessionNotFound if nothing was saved.
	Load(ctx context.Context, key string) (domain.Snapshot, error)

	// Delete removes the snapshot for a key.
	Delete(ctx context.Context, key string) error
}

// UnlockFunc releases a lock acquired through a DeviceLocker.
type UnlockFunc func(ctx context.Context) error

// DeviceLocker serialises access to a handset across processes.
type DeviceLocker interface {
	// Lock blocks until the lock for device is held or ctx is done.
	Lock(ctx context.Context, device string, ttl time.Duration) (UnlockFunc, error)
}
