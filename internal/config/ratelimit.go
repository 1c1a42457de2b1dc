package config

import "time"

// RateLimitConfig configures the Redis token bucket in front of the view
// endpoints.  Clicks arrive in bursts while a user picks a range, so the
// bucket is sized for bursts and refilled steadily.  A booking submission
// takes BookingCost tokens.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int // bucket size, i.e. the burst
	RefillTokens   int // tokens added every RefillInterval
	RefillInterval time.Duration
	BookingCost    int           // tokens taken by POST /v1/views/:id/bookings
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip | user | user_view | user_route | anything else: ip+user+route
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out of range values
// are clamped rather than rejected.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		BookingCost:    envInt("RATE_LIMIT_BOOKING_COST", 10),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "user_view"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "sfb:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if c.BookingCost < 1 {
		c.BookingCost = 1
	}
	if c.BookingCost > c.Capacity {
		c.BookingCost = c.Capacity
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
