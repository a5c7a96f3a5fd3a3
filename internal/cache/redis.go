package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache accepts either a redis:// URL or a bare host:port address.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     url,
		Password: "",
		DB:       0,
	}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{Client: client}, nil
}

func (r *RedisCache) Close() error {
	return r.Client.Close()
}

/*
* room lock
 */

// LockRoom takes the per-room lock for ttl and returns the token needed to
// release it. ErrRoomLocked means another request holds it.
func (r *RedisCache) LockRoom(ctx context.Context, roomID uint, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, MakeRoomLockKey(roomID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrRoomLocked
	}
	return token, nil
}

func (r *RedisCache) UnlockRoom(ctx context.Context, roomID uint, token string) error {
	return unlockScript.Run(ctx, r.Client, []string{MakeRoomLockKey(roomID)}, token).Err()
}

/*
* revoked tokens
 */

func (r *RedisCache) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, MakeRevokedTokenKey(tokenID), "1", ttl).Err()
}

func (r *RedisCache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.Client.Exists(ctx, MakeRevokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
