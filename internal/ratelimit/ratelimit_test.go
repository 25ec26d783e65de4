package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeLimiter counts in-process; the Redis implementation shares the same
// fixed-window contract.
type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key] <= f.limit, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	limiter := &fakeLimiter{counts: make(map[string]int), limit: 2}
	handler := Middleware(limiter, testLogger())(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client has its own window.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	handler := Middleware(limiter, testLogger())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareNilLimiterDisabled(t *testing.T) {
	handler := Middleware(nil, testLogger())(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
