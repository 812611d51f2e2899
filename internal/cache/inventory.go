package cache

import (
	"context"
	"fmt"
	"time"
)

// Key formats.
const (
	UserKeyPrefix         = "user:%d"
	GroupKeyPrefix        = "group:%s"
	RevokedTokenKeyPrefix = "revoked:%s"
)

// TTLs.
const (
	UserTTL  = 5 * time.Minute
	GroupTTL = 10 * time.Minute
)

// UserKey returns the cache key for a user by id.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// GroupKey returns the cache key for a group by slug.
func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// RevokedTokenKey returns the key marking a session token id as revoked.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

// Invalidate deletes key. It is a no-op without a client.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}

// RevokeToken marks jti as revoked until ttl elapses.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return client.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether jti has been revoked. Without a client nothing is revoked.
func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
