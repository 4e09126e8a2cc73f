package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/redis"
	"github.com/lk2023060901/dealer-backend/internal/pkg/response"
	"github.com/lk2023060901/dealer-backend/internal/pkg/validator"
)

// RateLimiterConfig configures a sliding window limiter
type RateLimiterConfig struct {
	MaxRequests int
	Window      time.Duration
	// Strategy picks the bucket: "user" (falls back to ip), "tenant" (falls back to user), or "ip".
	Strategy string
}

// sliding window over a sorted set, one member per request
var slidingWindowScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1}
end
return {0, 0}
`)

// RateLimiter limits requests per bucket using Redis. Redis failures let the request through.
func RateLimiter(client *redis.Client, cfg RateLimiterConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := client.Key(buildRateLimitKey(c, cfg.Strategy))

		allowed, remaining, err := checkRateLimit(c.Request.Context(), client, key, cfg)
		if err != nil {
			log.WithContext(c.Request.Context()).Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.ErrorWithCode(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

func buildRateLimitKey(c *gin.Context, strategy string) string {
	const prefix = "rate_limit"

	switch strategy {
	case "tenant":
		if tenantID := c.GetString(ContextTenantID); tenantID != "" {
			return fmt.Sprintf("%s:tenant:%s", prefix, tenantID)
		}
		fallthrough
	case "user":
		if userID := c.GetString(ContextUserID); userID != "" {
			return fmt.Sprintf("%s:user:%s", prefix, userID)
		}
	}
	return fmt.Sprintf("%s:ip:%s", prefix, validator.ClientIPKey(c.ClientIP(), "unknown"))
}

func checkRateLimit(ctx context.Context, client *redis.Client, key string, cfg RateLimiterConfig) (bool, int, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10)

	res, err := slidingWindowScript.Run(ctx, client.Universal(), []string{key},
		now.UnixMilli(), cfg.Window.Milliseconds(), cfg.MaxRequests, member).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result: %v", res)
	}
	return res[0] == 1, int(res[1]), nil
}

// UploadRateLimiter throttles image and logo uploads per tenant.
func UploadRateLimiter(client *redis.Client, log *logger.Logger) gin.HandlerFunc {
	return RateLimiter(client, RateLimiterConfig{
		MaxRequests: 120,
		Window:      time.Minute,
		Strategy:    "tenant",
	}, log)
}
