package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"main/services"

	"github.com/gin-gonic/gin"
)

func TestResolvePolicy(t *testing.T) {
	defaults := Policy{Limit: 10, WindowSeconds: 1}

	cases := []struct {
		name      string
		overrides []Policy
		want      Policy
	}{
		{
			name: "no overrides uses defaults",
			want: Policy{Limit: 10, WindowSeconds: 1},
		},
		{
			name:      "route override wins over group",
			overrides: []Policy{{Limit: 3, WindowSeconds: 5}, {Limit: 50, WindowSeconds: 60}},
			want:      Policy{Limit: 3, WindowSeconds: 5},
		},
		{
			name:      "unset route fields fall through to group",
			overrides: []Policy{{Limit: 3}, {Limit: 50, WindowSeconds: 60}},
			want:      Policy{Limit: 3, WindowSeconds: 60},
		},
		{
			name:      "unset group fields fall through to defaults",
			overrides: []Policy{{}, {Limit: 50}},
			want:      Policy{Limit: 50, WindowSeconds: 1},
		},
		{
			name:      "zero and negative are unset",
			overrides: []Policy{{Limit: -1, WindowSeconds: 0}},
			want:      Policy{Limit: 10, WindowSeconds: 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePolicy(defaults, tc.overrides...); got != tc.want {
				t.Errorf("ResolvePolicy = %+v, want %+v", got, tc.want)
			}
		})
	}
}

type gateCounterStore struct {
	counts     map[string]int64
	increments int
}

func newGateCounterStore() *gateCounterStore {
	return &gateCounterStore{counts: map[string]int64{}}
}

func (f *gateCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	f.increments++
	// Counting per user rather than per window keeps these tests
	// independent of where the wall clock sits in the current window.
	key = key[:strings.LastIndex(key, ":")]
	f.counts[key]++
	return f.counts[key], nil
}

func (f *gateCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (f *gateCounterStore) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	prefix := strings.TrimSuffix(pattern, ":*")
	var deleted int64
	for key := range f.counts {
		if strings.HasPrefix(key, prefix) {
			delete(f.counts, key)
			deleted++
		}
	}
	return deleted, nil
}

func gateRouter(store services.CounterStore, userID string, policies ...Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)

	limiter := services.NewRateLimiter(store, true)
	gate := NewRequestGate(limiter, Policy{Limit: 10, WindowSeconds: 1})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.GET("/gated", gate.Limit(policies...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGateDeniesOverLimit(t *testing.T) {
	store := newGateCounterStore()
	router := gateRouter(store, "user-1", Policy{Limit: 3, WindowSeconds: 5})

	for i := 1; i <= 3; i++ {
		if w := doGet(router, "/gated"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, w.Code)
		}
	}

	w := doGet(router, "/gated")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "5" {
		t.Errorf("Retry-After = %q, want the window length", got)
	}

	var body struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid denial body: %v", err)
	}
	if body.Error != "Rate limit exceeded" {
		t.Errorf("error = %q, want %q", body.Error, "Rate limit exceeded")
	}
	if body.RetryAfter != 5 {
		t.Errorf("retryAfter = %d, want 5", body.RetryAfter)
	}
}

func TestGateAllowsAfterReset(t *testing.T) {
	store := newGateCounterStore()
	router := gateRouter(store, "user-1", Policy{Limit: 3, WindowSeconds: 5})

	for i := 0; i < 4; i++ {
		doGet(router, "/gated")
	}
	if w := doGet(router, "/gated"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 before reset, got %d", w.Code)
	}

	limiter := services.NewRateLimiter(store, true)
	if _, err := limiter.Reset(context.Background(), "user-1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if w := doGet(router, "/gated"); w.Code != http.StatusOK {
		t.Errorf("status after reset = %d, want 200", w.Code)
	}
}

func TestGateFailsOpenWithoutIdentity(t *testing.T) {
	store := newGateCounterStore()
	router := gateRouter(store, "", Policy{Limit: 1, WindowSeconds: 5})

	// Unresolved identity is the auth layer's problem, never a 429
	for i := 0; i < 3; i++ {
		if w := doGet(router, "/gated"); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 on the fail-open path", w.Code)
		}
	}
	if store.increments != 0 {
		t.Errorf("counter store touched %d times on the fail-open path", store.increments)
	}
}

func TestUngatedRouteNeverTouchesStore(t *testing.T) {
	store := newGateCounterStore()
	router := gateRouter(store, "user-1")

	for i := 0; i < 5; i++ {
		if w := doGet(router, "/open"); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}
	if store.increments != 0 {
		t.Errorf("counter store touched %d times by an ungated route", store.increments)
	}
}

func TestGatePolicyPrecedenceAppliesToDenial(t *testing.T) {
	store := newGateCounterStore()
	// Route policy overrides the group's window in the retry hint
	router := gateRouter(store, "user-1",
		Policy{Limit: 1, WindowSeconds: 30}, Policy{Limit: 100, WindowSeconds: 60})

	doGet(router, "/gated")
	w := doGet(router, "/gated")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want the route-level window", got)
	}
}
