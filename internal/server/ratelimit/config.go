package ratelimit

import (
	"net/http"
	"time"

	"github.com/mirieri/mdb/internal/config"
)

// Tier is a named limiter applied to a class of requests.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the rate limit tiers.
type Config struct {
	// Write limits mutating requests per client IP. Nil means unlimited.
	Write *Tier
}

// NewConfig creates limiters from the configured rates.
func NewConfig(rl config.RateLimits) *Config {
	c := &Config{}
	if rl.WritePerMin > 0 {
		c.Write = &Tier{
			Name:    "write",
			Limiter: NewLimiter(rl.WritePerMin, time.Minute, rl.WriteBurst),
		}
	}
	return c
}

// Match returns the tier for a request, or nil when it is not rate limited.
func (c *Config) Match(method, path string) *Tier {
	if path == "/api/health" {
		return nil
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write
	default:
		return nil
	}
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	if c.Write != nil {
		c.Write.Limiter.Close()
	}
}
