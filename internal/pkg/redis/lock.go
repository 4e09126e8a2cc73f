package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// unlockScript deletes the key only while it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock takes key for ttl and returns the owner token. A key already held
// fails with ErrLockHeld without waiting.
func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" || ttl <= 0 {
		return "", ErrInvalidArgs
	}

	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, c.Key(key), token, ttl).Result()
	if err != nil {
		c.logger.Error("redis lock failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLockHeld, key)
	}

	c.logger.Debug("redis lock acquired", zap.String("key", key), zap.Duration("ttl", ttl))
	return token, nil
}

// Unlock releases key if token still owns it
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, c.rdb, []string{c.Key(key)}, token).Int64()
	if err != nil {
		c.logger.Error("redis unlock failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLockLost, key)
	}

	c.logger.Debug("redis lock released", zap.String("key", key))
	return nil
}

// WithLock runs fn while holding key. The lock is released with a fresh
// context so a cancelled ctx does not leave the key behind until ttl.
func (c *Client) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token, err := c.Lock(ctx, key, ttl)
	if err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := c.Unlock(releaseCtx, key, token); err != nil {
			c.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
