package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "cozycakey/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter keyed by client IP and kept in Redis,
// so every instance behind the load balancer shares the same counters.
type RateLimiter struct {
	rdb     redis.Scripter
	limit   int
	window  time.Duration
	prefix  string
	proxies []*net.IPNet
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "rl"
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

// TrustProxies lets X-Forwarded-For pick the client address, but only for
// requests arriving from one of nets. Without it the header is ignored.
func (rl *RateLimiter) TrustProxies(nets []*net.IPNet) *RateLimiter {
	rl.proxies = nets
	return rl
}

// Middleware rejects clients over the limit with 429. When Redis is down the
// request is let through and the failure logged.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.incr(r.Context(), rl.prefix+":"+rl.clientKey(r))
		if err != nil {
			slog.WarnContext(r.Context(), "rate limiter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			apperrors.WriteError(w, apperrors.ErrTooManyRequests("Too many requests, please slow down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, rl.rdb, []string{key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// clientKey walks X-Forwarded-For from the right, skipping trusted hops, so a
// client cannot pick its own key by sending the header itself.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	addr := remoteHost(r)
	if !rl.trusted(addr) {
		return addr
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.trusted(hop) {
			return hop
		}
		addr = hop
	}
	return addr
}

func (rl *RateLimiter) trusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range rl.proxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
