package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionStoreContractTest is a reusable suite that verifies an adapter complies with ports.SessionStore.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-roundtrip"
		s := domain.NewSession(id, "q1")
		s.History = append(s.History, domain.Step{NodeID: "q1", AnswerIndex: 1})
		s.Current = "q2-it"

		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "q2-it", loaded.Current)
		assert.Equal(t, s.History, loaded.History)
		assert.True(t, s.StartedAt.Equal(loaded.StartedAt), "started_at survives")
	})

	t.Run("Stored copy is isolated", func(t *testing.T) {
		id := prefix + "-isolated"
		s := domain.NewSession(id, "q1")
		require.NoError(t, store.Save(ctx, s))

		s.Current = "mutated"
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "q1", loaded.Current)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, domain.NewSession(id, "q1")))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is fine")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := prefix+"-list-1", prefix+"-list-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, "q1")))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, "q1")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// TreeLoaderContractTest verifies that a loader produces the expected tree on every call
// and never hands out shared mutable state.
func TreeLoaderContractTest(t *testing.T, loader ports.TreeLoader, wantEntry string, wantIDs []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		tr, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, wantEntry, tr.Entry())
		assert.ElementsMatch(t, wantIDs, tr.IDs())
	})

	t.Run("Load is repeatable", func(t *testing.T) {
		a, err := loader.Load(ctx)
		require.NoError(t, err)
		b, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, a.IDs(), b.IDs())
	})

	t.Run("Canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := loader.Load(canceled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
