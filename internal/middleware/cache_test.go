package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenzo/event-booking/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

// serveCached runs one request through the cache middleware and a
// handler that returns a fixed JSON body.
func serveCached(t *testing.T, mw echo.MiddlewareFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/v1/events", mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCacheMissStoresResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()
	mw := NewRedisCache(cfg, rdb)

	// The middleware sees the routed path, so it produces the same key
	// the real server would.
	e := echo.New()
	e.GET("/v1/events", func(c echo.Context) error { return nil })
	req := httptest.NewRequest(http.MethodGet, "/v1/events?page=1", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events")
	key := cacheKeyFrom(cfg, c)

	body := "{\"ok\":true}\n"
	hdr := http.Header{
		"Content-Type": {"application/json; charset=UTF-8"},
		"X-Cache":      {"MISS"},
	}
	payload, err := encodePayload(http.StatusOK, hdr, []byte(body))
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, payload, cfg.TTL).SetVal("OK")

	rec := serveCached(t, mw, "/v1/events?page=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, body, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheHitReplaysStoredResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()
	mw := NewRedisCache(cfg, rdb)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?page=1", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events")
	key := cacheKeyFrom(cfg, c)

	stored := "{\"ok\":true}\n"
	payload, err := encodePayload(http.StatusOK,
		http.Header{"Content-Type": {"application/json; charset=UTF-8"}}, []byte(stored))
	require.NoError(t, err)

	mock.ExpectGet(key).SetVal(string(payload))

	// The handler must not run on a hit.
	ran := false
	e2 := echo.New()
	e2.GET("/v1/events", mw(func(c echo.Context) error {
		ran = true
		return c.String(http.StatusOK, "fresh")
	}))
	rec := httptest.NewRecorder()
	e2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events?page=1", nil))

	assert.False(t, ran)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, stored, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	mw := NewRedisCache(cacheTestConfig(), nil)

	rec := serveCached(t, mw, "/v1/events")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheSkipsUnconfiguredMethods(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mw := NewRedisCache(cacheTestConfig(), rdb)

	e := echo.New()
	e.POST("/v1/events", mw(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	payload, err := encodePayload(200, hdr, []byte("body"))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, "body", string(body))

	_, _, _, ok = decodePayload([]byte("short"))
	assert.False(t, ok)
}
