package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"ShopAdmin/internal/metrics"
	"ShopAdmin/internal/ratelimit"

	"go.uber.org/zap"
)

// RateLimit limits requests per client IP. It expects chi's RealIP to have
// run first. Limiter errors let the request through.
func RateLimit(l ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
			}
			if !ok {
				m.Login(metrics.LoginLimited)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "Too many login attempts"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP stores a bare address
		return r.RemoteAddr
	}
	return host
}
