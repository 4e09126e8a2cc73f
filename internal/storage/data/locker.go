package data

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/redis"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// RedisLocker implements biz.Locker with a token-checked Redis lock.
type RedisLocker struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisLocker(client *redis.Client, log *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: log}
}

var _ biz.Locker = (*RedisLocker)(nil)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token, err := l.client.Lock(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, biz.ErrCleanupInProgress
		}
		return nil, err
	}

	release := func() {
		// the caller's ctx may already be done when the run finishes
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.client.Unlock(ctx, key, token); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, nil
}
