package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/cache"
)

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	blacklist := NewTokenBlacklist(client)

	t.Run("Revoked token is found", func(t *testing.T) {
		require.NoError(t, blacklist.Add(ctx, "tok-1", time.Hour))

		revoked, err := blacklist.IsBlacklisted(ctx, "tok-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = blacklist.IsBlacklisted(ctx, "tok-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Entries expire with the token", func(t *testing.T) {
		require.NoError(t, blacklist.Add(ctx, "tok-3", time.Minute))
		mr.FastForward(2 * time.Minute)

		revoked, err := blacklist.IsBlacklisted(ctx, "tok-3")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Nil cache disables revocation", func(t *testing.T) {
		disabled := NewTokenBlacklist(nil)
		require.NoError(t, disabled.Add(ctx, "tok-4", time.Hour))

		revoked, err := disabled.IsBlacklisted(ctx, "tok-4")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
