package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lumeo-studio/workspace-api/pkg/cache"
)

// TokenBlacklist holds revoked bearer tokens until they would have expired
// anyway. A nil cache disables revocation (tokens then simply age out).
type TokenBlacklist struct {
	cache *cache.Client
}

// NewTokenBlacklist creates a token blacklist over the given cache.
func NewTokenBlacklist(cache *cache.Client) *TokenBlacklist {
	return &TokenBlacklist{cache: cache}
}

// Add revokes a token for the given duration.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiration time.Duration) error {
	if b == nil || b.cache == nil {
		return nil
	}
	key := fmt.Sprintf("token:blacklist:%s", hashToken(token))
	return b.cache.Set(ctx, key, "revoked", expiration)
}

// IsBlacklisted reports whether a token has been revoked.
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	if b == nil || b.cache == nil {
		return false, nil
	}
	key := fmt.Sprintf("token:blacklist:%s", hashToken(token))
	return b.cache.Exists(ctx, key)
}

// hashToken avoids storing raw tokens in the cache.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
