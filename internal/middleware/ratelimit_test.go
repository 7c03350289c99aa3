// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(2, 2),
	})
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.RemoteAddr = "203.0.113.7:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, RateLimitConfig{
		Limit: PerMinute(1, 1),
	})
	h := rl.Handler(okHandler())

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiterSkipsWebSocketUpgrades(t *testing.T) {
	rl := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 1),
	})
	h := rl.Handler(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByIPAndEndpoint(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/conversations/client@example.com",
		nil,
	)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 198.51.100.4")

	assert.Equal(t,
		"ratelimit:ip:198.51.100.4:endpoint:/api/conversations/{id}",
		KeyByIPAndEndpoint(req),
	)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/bookings", "/api/bookings"},
		{"/api/bookings/0b6f3c2e-4f61-4b8e-9a57-1c2d3e4f5a6b", "/api/bookings/{id}"},
		{"/api/projects/a@b.co/files/42", "/api/projects/{id}/files/{id}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeEndpoint(tt.path), tt.path)
	}
}

func TestPerWindow(t *testing.T) {
	assert.Equal(t, time.Minute, PerWindow(10, 5, 0).Period)

	l := PerWindow(10, 5, 15*time.Second)
	assert.Equal(t, 15*time.Second, l.Period)
	assert.Equal(t, 10, l.Rate)
	assert.Equal(t, 5, l.Burst)
}
