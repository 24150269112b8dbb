package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// RedisRegistry backs slot holds with Redis so multiple engine instances
// agree on who holds a slot. SETNX provides the atomic check-and-set;
// the TTL implements the hold timeout; PERSIST makes a paid hold durable.
type RedisRegistry struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewRedisRegistry creates a Redis-backed registry.
func NewRedisRegistry(client *redis.Client, logger *logging.Logger) *RedisRegistry {
	if client == nil {
		panic("slots: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisRegistry{redis: client, logger: logger}
}

// Hold claims the slot via SETNX. A booking re-holding its own slot
// renews the TTL.
func (r *RedisRegistry) Hold(ctx context.Context, key Key, bookingID string, ttl time.Duration) error {
	k := key.String()
	ok, err := r.redis.SetNX(ctx, k, bookingID, ttl).Result()
	if err != nil {
		return fmt.Errorf("slots: hold: %w", err)
	}
	if ok {
		r.logger.Info("slot held", "key", k, "booking_id", bookingID, "ttl", ttl)
		return nil
	}

	holder, err := r.redis.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Hold expired between SETNX and GET; retry the claim once.
		ok, err = r.redis.SetNX(ctx, k, bookingID, ttl).Result()
		if err != nil {
			return fmt.Errorf("slots: hold: %w", err)
		}
		if !ok {
			return ErrSlotHeld
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("slots: hold: %w", err)
	}
	if holder != bookingID {
		return ErrSlotHeld
	}
	if err := r.redis.Expire(ctx, k, ttl).Err(); err != nil {
		return fmt.Errorf("slots: renew hold: %w", err)
	}
	return nil
}

// Confirm drops the TTL so the hold survives until release.
func (r *RedisRegistry) Confirm(ctx context.Context, key Key, bookingID string) error {
	k := key.String()
	holder, err := r.redis.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotHolder
	}
	if err != nil {
		return fmt.Errorf("slots: confirm: %w", err)
	}
	if holder != bookingID {
		return ErrNotHolder
	}
	if err := r.redis.Persist(ctx, k).Err(); err != nil {
		return fmt.Errorf("slots: confirm: %w", err)
	}
	return nil
}

// Release deletes the hold if bookingID owns it.
func (r *RedisRegistry) Release(ctx context.Context, key Key, bookingID string) error {
	k := key.String()
	holder, err := r.redis.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("slots: release: %w", err)
	}
	if holder != bookingID {
		return ErrNotHolder
	}
	if err := r.redis.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("slots: release: %w", err)
	}
	r.logger.Info("slot released", "key", k, "booking_id", bookingID)
	return nil
}

// Holder returns the booking holding the slot, or "".
func (r *RedisRegistry) Holder(ctx context.Context, key Key) (string, error) {
	holder, err := r.redis.Get(ctx, key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("slots: holder: %w", err)
	}
	return holder, nil
}
