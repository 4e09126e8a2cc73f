package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNil         = redis.Nil
	ErrLockHeld    = errors.New("redis: lock is held by another owner")
	ErrLockLost    = errors.New("redis: lock expired or taken over before release")
	ErrInvalidArgs = errors.New("redis: invalid arguments")
)

// IsNil reports a missing key
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// IsClosed reports use of a closed client
func IsClosed(err error) bool {
	return errors.Is(err, redis.ErrClosed)
}
