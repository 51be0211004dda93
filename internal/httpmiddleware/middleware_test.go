package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketRejectsAfterBurst(t *testing.T) {
	clock := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(3, 60)
	l.now = func() time.Time { return clock }
	r := newRouter(l.Middleware("/healthz"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/api/ping").Code)
	}
	rec := get(r, "/api/ping")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code, "skipped paths are not limited")

	clock = clock.Add(1500 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r, "/api/ping").Code, "one token refilled per second")
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/ping").Code)
}

func TestTokenBucketSweepsIdleClients(t *testing.T) {
	clock := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(1, 1)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	clock = clock.Add(idleAfter)
	assert.True(t, l.allow("b"))
	assert.NotContains(t, l.clients, "a")
}

func TestMetricsLabelsByRoute(t *testing.T) {
	r := newRouter(Metrics())
	before := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/ping", "200"))

	get(r, "/api/ping")
	get(r, "/api/ping")
	get(r, "/nowhere")

	assert.Equal(t, before+2, testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/ping", "200")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")), 1.0)
}

func TestRecoveryAndHeaders(t *testing.T) {
	r := newRouter(Recovery(), SecurityHeaders())

	rec := get(r, "/api/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())

	rec = get(r, "/api/ping")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newRouter(CORS([]string{"https://school.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set("Origin", "https://school.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://school.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
