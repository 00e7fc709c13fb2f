package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/evenzo/event-booking/internal/config"
)

func rateLimitTestConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	}
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	mw := NewTokenBucket(rateLimitTestConfig(), nil)

	e := echo.New()
	e.GET("/v1/events", mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestBuildRateKey(t *testing.T) {
	newCtx := func(userID any) echo.Context {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/events")
		if userID != nil {
			c.Set("user_id", userID)
		}
		return c
	}

	cfg := rateLimitTestConfig()

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.1.2.3", buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, newCtx(nil)))
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, newCtx(uint64(42))))
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, newCtx(float64(42))))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t, "rl:ip:10.1.2.3:user:42:route:GET /v1/events", buildRateKey(cfg, newCtx(uint64(42))))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(7), asInt64(int64(7)))
	assert.Equal(t, int64(7), asInt64(7))
	assert.Equal(t, int64(7), asInt64(7.9))
	assert.Equal(t, int64(7), asInt64("7"))
	assert.Equal(t, int64(0), asInt64("bogus"))
	assert.Equal(t, int64(0), asInt64(nil))
}
