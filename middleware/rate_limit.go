package middleware

import (
	"log"
	"net/http"
	"strconv"

	"main/services"

	"github.com/gin-gonic/gin"
)

// Policy holds rate-limit settings for an endpoint or a route group.
// A value of zero or below is unset and falls through to the next
// precedence level when resolved.
type Policy struct {
	Limit         int
	WindowSeconds int
}

// ResolvePolicy merges policies into an effective limit and window.
// Overrides are listed highest precedence first (route before group);
// defaults fill whatever remains unset. Each field resolves independently.
func ResolvePolicy(defaults Policy, overrides ...Policy) Policy {
	resolved := defaults
	for i := len(overrides) - 1; i >= 0; i-- {
		if overrides[i].Limit > 0 {
			resolved.Limit = overrides[i].Limit
		}
		if overrides[i].WindowSeconds > 0 {
			resolved.WindowSeconds = overrides[i].WindowSeconds
		}
	}
	return resolved
}

// RequestGate intercepts gated operations and short-circuits callers that
// exhausted their quota. Routes without a Limit middleware are not gated
// at all and never touch the counter store.
type RequestGate struct {
	Limiter  *services.RateLimiter
	Defaults Policy
}

func NewRequestGate(limiter *services.RateLimiter, defaults Policy) *RequestGate {
	return &RequestGate{
		Limiter:  limiter,
		Defaults: defaults,
	}
}

// Limit gates a route with the given policies, highest precedence first.
// The policy is resolved once at route registration, not per request.
func (g *RequestGate) Limit(policies ...Policy) gin.HandlerFunc {
	resolved := ResolvePolicy(g.Defaults, policies...)

	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			// No resolved identity. Let the request through so the auth
			// layer reports the real problem instead of a misleading 429.
			RateLimitDecisionsTotal.WithLabelValues("no_identity").Inc()
			c.Next()
			return
		}

		allowed, err := g.Limiter.Allow(c.Request.Context(), userID, resolved.Limit, resolved.WindowSeconds)
		if err != nil {
			log.Printf("[RequestGate] counter store error for user %s: %v", userID, err)
			RateLimitDecisionsTotal.WithLabelValues("store_error").Inc()
			// The decision already reflects the configured fail-open /
			// fail-closed choice.
		}

		if !allowed {
			RateLimitDecisionsTotal.WithLabelValues("denied").Inc()
			c.Header("Retry-After", strconv.Itoa(resolved.WindowSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": resolved.WindowSeconds,
			})
			return
		}

		RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
