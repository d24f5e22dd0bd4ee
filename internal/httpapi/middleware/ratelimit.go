package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ApplyCounter interface {
	IncrementApplyRateLimit(ctx context.Context, clientIP string) (int64, error)
}

// RateLimit caps requests per client IP per minute. A counter failure lets
// the request through. A nil counter or a non-positive limit disables it.
func RateLimit(counter ApplyCounter, maxPerMinute int, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || maxPerMinute <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			count, err := counter.IncrementApplyRateLimit(ctx, ip)
			if err != nil {
				logger.Error("failed to check rate limit",
					zap.String("client_ip", ip),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(maxPerMinute) {
				logger.Warn("rate limit exceeded",
					zap.String("client_ip", ip),
					zap.Int64("count", count),
				)

				w.Header().Set("Retry-After", "60")
				writeDetail(w, http.StatusTooManyRequests, fmt.Sprintf(
					"Превышен лимит заявок. Пожалуйста, подождите минуту. Максимум: %d в минуту.",
					maxPerMinute,
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
