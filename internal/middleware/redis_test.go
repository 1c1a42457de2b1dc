package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sportfield-booking/internal/config"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		BookingCost:    1,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	protected(e, NewTokenBucket(cfg, newRedis(t), nil))

	for i := 0; i < 2; i++ {
		if rec := do(e, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := do(e, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the bucket is empty, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}
}

func TestRedisCacheHit(t *testing.T) {
	e := echo.New()
	calls := 0
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "c",
	}
	e.GET("/p", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, NewRedisCache(cfg, newRedis(t), nil))

	first := do(e, "")
	second := do(e, "")
	if calls != 1 {
		t.Fatalf("expected the handler to run once, ran %d times", calls)
	}
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("unexpected cache headers %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if second.Body.String() != first.Body.String() || second.Header().Get("Content-Type") == "" {
		t.Fatalf("hit did not replay the response: %q %v", second.Body.String(), second.Header())
	}
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
	e := echo.New()
	calls := 0
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "c",
		MaxBodyBytes: 4,
	}
	e.GET("/p", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "more than four bytes")
	}, NewRedisCache(cfg, newRedis(t), nil))

	do(e, "")
	if rec := do(e, ""); rec.Header().Get("X-Cache") != "MISS" || rec.Body.String() != "more than four bytes" {
		t.Fatalf("oversized body must not be cached: %v %q", rec.Header(), rec.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected the handler to run twice, ran %d times", calls)
	}
}
