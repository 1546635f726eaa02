package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Unlock gives a held lock back.
type Unlock func(ctx context.Context) error

// Locker hands out a cluster-wide lock so one worker runs a cycle at a time.
// A nil Unlock with a nil error means another worker holds the lock.
type Locker interface {
	TryLock(ctx context.Context) (Unlock, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type redisLocker struct {
	store lockStore
	key   string
	ttl   time.Duration
}

// NewRedisLocker locks key with SETNX. The ttl must outlast one cycle.
func NewRedisLocker(store lockStore, key string, ttl time.Duration) (Locker, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &redisLocker{store: store, key: key, ttl: ttl}, nil
}

func (l *redisLocker) TryLock(ctx context.Context) (Unlock, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		held, err := l.store.Get(ctx, l.key)
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil:
			return fmt.Errorf("read %s: %w", l.key, err)
		case held != token:
			// expired and taken over by another worker
			return nil
		}
		if err := l.store.Del(ctx, l.key); err != nil {
			return fmt.Errorf("release %s: %w", l.key, err)
		}
		return nil
	}, nil
}
