package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-feature-engine/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	hit := func(h http.Handler, addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("Success - Under Burst", func(t *testing.T) {
		rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}, logger)
		h := rl.Middleware(next)
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1001"))
	})

	t.Run("Error - Over Burst", func(t *testing.T) {
		rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}, logger)
		h := rl.Middleware(next)
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000"))
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2:1000"))
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.3:1000"), "other clients keep their own bucket")
	})

	t.Run("Disabled", func(t *testing.T) {
		rl := NewRateLimiter(config.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}, logger)
		h := rl.Middleware(next)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4:1000"))
		}
	})

	t.Run("Sweep Evicts Idle Visitors", func(t *testing.T) {
		rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.allow("10.0.0.5")
		now = now.Add(5 * time.Minute)
		rl.allow("10.0.0.6")
		now = now.Add(6 * time.Minute)

		assert.Equal(t, 1, rl.sweep())
		assert.Len(t, rl.visitors, 1)
		assert.Contains(t, rl.visitors, "10.0.0.6")
	})
}
