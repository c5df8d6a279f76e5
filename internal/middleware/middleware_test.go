package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingScripter stands in for Redis and counts script runs per key.
type countingScripter struct {
	counts map[string]int64
	err    error
}

func (s *countingScripter) run(ctx context.Context, keys []string) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	s.counts[keys[0]]++
	cmd.SetVal(s.counts[keys[0]])
	return cmd
}

func (s *countingScripter) Eval(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(ctx, keys)
}

func (s *countingScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(ctx, keys)
}

func (s *countingScripter) EvalRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(ctx, keys)
}

func (s *countingScripter) EvalShaRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(ctx, keys)
}

func (s *countingScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (s *countingScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rdb := &countingScripter{counts: map[string]int64{}}
	h := NewRateLimiter(rdb, 2, time.Minute, "orders").Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders/design", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.EqualValues(t, 3, rdb.counts["orders:203.0.113.7"])

	// Another client has its own window.
	req := httptest.NewRequest(http.MethodPost, "/api/orders/design", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	rdb := &countingScripter{counts: map[string]int64{}}
	h := NewRateLimiter(rdb, 1, time.Minute, "orders").Middleware(okHandler())

	for i, spoofed := range []string{"192.0.2.1", "192.0.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/orders/design", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
	assert.EqualValues(t, 2, rdb.counts["orders:203.0.113.7"])
}

func TestRateLimiter_TrustedProxyForwardsClientAddress(t *testing.T) {
	_, proxyNet, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	rdb := &countingScripter{counts: map[string]int64{}}
	h := NewRateLimiter(rdb, 5, time.Minute, "orders").TrustProxies([]*net.IPNet{proxyNet}).Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/design", nil)
	req.RemoteAddr = "10.0.0.2:443"
	// The left entry is client-supplied; the proxy chain appended the real one.
	req.Header.Set("X-Forwarded-For", "192.0.2.9, 198.51.100.1, 10.0.0.3")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.EqualValues(t, 1, rdb.counts["orders:198.51.100.1"])
	assert.Zero(t, rdb.counts["orders:192.0.2.9"])
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rdb := &countingScripter{err: errors.New("connection refused")}
	h := NewRateLimiter(rdb, 1, time.Minute, "").Middleware(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/orders/catering", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/api/orders/catering", entry["path"])
	assert.EqualValues(t, 201, entry["status"])
	assert.EqualValues(t, 4, entry["bytes"])
}

func TestRequestID_Generates(t *testing.T) {
	rec := httptest.NewRecorder()
	RequestID(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}
