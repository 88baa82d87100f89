package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

type maskMiddleware struct {
	next ports.SnapshotStore
}

// NewMaskingMiddleware hides most of the destination ID in saved snapshots.
// Masked snapshots are for display only: they cannot be restored.
func NewMaskingMiddleware() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &maskMiddleware{next: next}
	}
}

func (m *maskMiddleware) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	if snap.Request != nil {
		// Copy so the session's own request is untouched.
		req := *snap.Request
		req.DestinationID = MaskDestination(req.DestinationID)
		snap.Request = &req
	}
	return m.next.Save(ctx, key, snap)
}

func (m *maskMiddleware) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	return m.next.Load(ctx, key)
}

func (m *maskMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

// MaskDestination keeps the first two characters of the account and the
// handle, e.g. "merchant@upi" becomes "me***@upi".
func MaskDestination(id string) string {
	account, handle, ok := strings.Cut(id, "@")
	if !ok {
		return "***"
	}
	if len(account) > 2 {
		account = account[:2]
	}
	return account + "***@" + handle
}
