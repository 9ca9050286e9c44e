package session

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Store keeps per-visitor checkout state: currently just the coupon code
// the visitor applied. The session identity itself is a cookie managed by
// the HTTP layer; the store only maps session ids to state.
type Store interface {
	// AppliedCoupon returns the coupon code applied to the session, or
	// the empty string when none is applied.
	AppliedCoupon(ctx context.Context, sessionID string) (string, error)

	// ApplyCoupon associates a coupon code with the session.
	ApplyCoupon(ctx context.Context, sessionID, code string) error

	// ClearCoupon drops the session's coupon association, if any.
	ClearCoupon(ctx context.Context, sessionID string) error

	// Close releases the underlying connection.
	Close() error
}

// redisStore implements Store on Redis.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore connects to Redis and returns a session store. Keys expire
// after the configured session TTL so abandoned sessions clean themselves
// up.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("connected to redis session store")

	return &redisStore{
		client: client,
		ttl:    cfg.TTL(),
		logger: logger.With().Str("component", "session-store").Logger(),
	}, nil
}

func couponKey(sessionID string) string {
	return "session:" + sessionID + ":coupon"
}

func (s *redisStore) AppliedCoupon(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.Get(ctx, couponKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read applied coupon: %w", err)
	}
	return code, nil
}

func (s *redisStore) ApplyCoupon(ctx context.Context, sessionID, code string) error {
	if err := s.client.Set(ctx, couponKey(sessionID), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store applied coupon: %w", err)
	}
	s.logger.Debug().Str("session_id", sessionID).Str("code", code).Msg("coupon applied to session")
	return nil
}

func (s *redisStore) ClearCoupon(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, couponKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear applied coupon: %w", err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
