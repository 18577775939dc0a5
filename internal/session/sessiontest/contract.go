// Package sessiontest holds the behaviour every session.Store must have.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/Yulia51188/fish-house/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract exercises store against the session.Store contract.
func RunStoreContract(t *testing.T, store session.Store) {
	ctx := context.Background()
	base := time.Now().UnixNano() % 1_000_000_000

	t.Run("Missing conversation", func(t *testing.T) {
		id := base + 1
		_, err := store.State(ctx, id)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = store.Page(ctx, id)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("Set and get state", func(t *testing.T) {
		id := base + 2
		require.NoError(t, store.SetState(ctx, id, "MENU"))
		got, err := store.State(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "MENU", got)

		require.NoError(t, store.SetState(ctx, id, "CART"))
		got, err = store.State(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "CART", got, "last write wins")
	})

	t.Run("Set and get page", func(t *testing.T) {
		id := base + 3
		require.NoError(t, store.SetPage(ctx, id, 4))
		got, err := store.Page(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 4, got)
	})

	t.Run("Init resets page", func(t *testing.T) {
		id := base + 4
		require.NoError(t, store.SetState(ctx, id, "CART"))
		require.NoError(t, store.SetPage(ctx, id, 3))

		require.NoError(t, store.Init(ctx, id, "MENU"))

		state, err := store.State(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "MENU", state)
		page, err := store.Page(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, page)
	})

	t.Run("Conversations are independent", func(t *testing.T) {
		a, b := base+5, base+6
		require.NoError(t, store.Init(ctx, a, "MENU"))
		require.NoError(t, store.Init(ctx, b, "MENU"))
		require.NoError(t, store.SetState(ctx, a, "DESCRIPTION"))
		require.NoError(t, store.SetPage(ctx, a, 2))

		state, err := store.State(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "MENU", state)
		page, err := store.Page(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, 0, page)
	})
}
