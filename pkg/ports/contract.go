package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.Snapshot{
			Phase:     domain.PhaseEnterAmount,
			Request:   &domain.PaymentRequest{Amount: "500", DestinationID: "foo@bank", DisplayName: "Foo"},
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}

		require.NoError(t, store.Save(ctx, key, snap), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Phase, loaded.Phase)
		require.NotNil(t, loaded.Request)
		assert.Equal(t, *snap.Request, *loaded.Request)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.Snapshot{Phase: domain.PhaseSuccess}))
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseSuccess, loaded.Phase)
		assert.Nil(t, loaded.Request)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.NewSnapshot(time.Now())))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})
}
