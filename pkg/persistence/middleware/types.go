// Package middleware wraps snapshot stores to protect the payment details they
// publish.
package middleware

import "github.com/aretw0/ussdpilot/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain wraps store with mws. The first middleware sees calls first.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
