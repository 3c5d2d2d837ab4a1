package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinepass/boxoffice/internal/config"
)

// tokenBucket refills a bucket in Redis and takes one token per request.
// Running the arithmetic in a Lua script keeps check-and-decrement atomic
// across replicas sharing the same Redis.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'updated_ms')
local tokens = tonumber(state[1])
local updated_ms = tonumber(state[2])
if tokens == nil then
  tokens = capacity
  updated_ms = now_ms
end

local elapsed = now_ms - updated_ms
if elapsed > 0 then
  local refills = math.floor(elapsed / interval_ms)
  if refills > 0 then
    tokens = math.min(capacity, tokens + refills * refill_tokens)
    updated_ms = updated_ms + refills * interval_ms
  end
end

local allowed = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HMSET', key, 'tokens', tokens, 'updated_ms', updated_ms)
redis.call('EXPIRE', key, ttl_seconds)
return allowed
`)

// RateLimit applies a per-user (falling back to per-IP) token bucket. A nil
// Redis client or a Redis failure disables limiting rather than refusing
// traffic.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who := UserID(c)
			if who == "" {
				who = c.RealIP()
			}
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, who, c.Path())
			allowed, err := tokenBucket.Run(c.Request().Context(), rdb,
				[]string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int(cfg.TTL.Seconds()),
			).Int()
			if err != nil {
				return next(c)
			}
			if allowed == 0 {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
