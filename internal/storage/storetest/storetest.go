// Package storetest is the behaviour every storage.Store must share.
package storetest

import (
	"context"
	"testing"

	"fitnest/client/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the Store contract.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key reads empty", func(t *testing.T) {
		v, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "token", "abc.def.ghi"))
		v, err := s.Get(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "userId", "1"))
		require.NoError(t, s.Set(ctx, "userId", "2"))
		v, err := s.Get(ctx, "userId")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "username", "ann"))
		require.NoError(t, s.Remove(ctx, "username"))
		v, err := s.Get(ctx, "username")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("remove missing key is not an error", func(t *testing.T) {
		assert.NoError(t, s.Remove(ctx, "never-set"))
	})

	t.Run("large json value round trips", func(t *testing.T) {
		big := `[` + `{"id":1,"type":"listing","title":"Loft","image":"x","subtitle":"$1"}`
		for i := 0; i < 200; i++ {
			big += `,{"id":1,"type":"listing","title":"Loft","image":"x","subtitle":"$1"}`
		}
		big += `]`
		require.NoError(t, s.Set(ctx, "starredItems_7", big))
		v, err := s.Get(ctx, "starredItems_7")
		require.NoError(t, err)
		assert.Equal(t, big, v)
	})
}
