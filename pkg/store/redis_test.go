package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func newTestRedisAdapter(t *testing.T) *RedisAdapter {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter := NewRedisAdapterWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func TestRedisAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Load initializes an empty document", func(t *testing.T) {
		adapter := newTestRedisAdapter(t)

		doc, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Version)
		assert.Empty(t, doc.Data.Leads)
	})

	t.Run("TrySave commits at the loaded version", func(t *testing.T) {
		adapter := newTestRedisAdapter(t)

		doc, err := adapter.Load(ctx)
		require.NoError(t, err)

		data := doc.Data
		data.Leads = append(data.Leads, models.Lead{ID: "ld_1", Name: "A", Contact: "c"})
		committed, err := adapter.TrySave(ctx, doc.Version, doc.Users, data)
		require.NoError(t, err)
		assert.True(t, committed)

		reloaded, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, reloaded.Version)
		require.Len(t, reloaded.Data.Leads, 1)
		assert.Equal(t, "ld_1", reloaded.Data.Leads[0].ID)
	})

	t.Run("TrySave refuses a stale version", func(t *testing.T) {
		adapter := newTestRedisAdapter(t)

		doc, err := adapter.Load(ctx)
		require.NoError(t, err)

		committed, err := adapter.TrySave(ctx, doc.Version, doc.Users, doc.Data)
		require.NoError(t, err)
		require.True(t, committed)

		// Same version again: the first write already moved it.
		committed, err = adapter.TrySave(ctx, doc.Version, doc.Users, doc.Data)
		require.NoError(t, err)
		assert.False(t, committed)
	})
}
