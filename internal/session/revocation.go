// Package session tracks revoked access tokens in Redis.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"yard-service/internal/config"
)

const (
	revokedPrefix = "token:revoked:"
	pingTimeout   = 5 * time.Second
)

// Store is safe to use as a nil pointer: a nil Store revokes nothing and reports
// every token as live.
type Store struct {
	rdb *redis.Client
	log zerolog.Logger
}

// Connect opens the Redis client and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("connected to redis")
	return &Store{rdb: rdb, log: log}, nil
}

// Revoke marks the token id as revoked for ttl, the token's remaining lifetime.
// Already expired tokens need no entry.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil || tokenID == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}

func revokedKey(tokenID string) string {
	return revokedPrefix + tokenID
}
