package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitByIP_BlocksBeyondLimit(t *testing.T) {
	reached := 0
	handler := RateLimitByIP(DefaultAuthRateLimit())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	limit := DefaultAuthRateLimit().RequestsPerMinute
	for i := 0; i < limit; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:41000"
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// The next request from the same IP never reaches the handler.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, rec.Body.String())
	assert.Equal(t, limit, reached)
}

func TestRateLimitByIP_KeysByClientIP(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	reqA.RemoteAddr = "198.51.100.1:55000"
	handler.ServeHTTP(first, reqA)
	require.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, reqA)
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)

	// A different IP has its own budget.
	other := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	reqB.RemoteAddr = "198.51.100.2:55000"
	handler.ServeHTTP(other, reqB)
	assert.Equal(t, http.StatusOK, other.Code)
}
