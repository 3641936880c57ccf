package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/studyhub/internal/auth"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// RateLimitByAdmin limits requests per authenticated account. Requests
// without claims are keyed by client IP. Mount it after the auth middleware.
func RateLimitByAdmin(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(adminKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests")
		}),
	)
}

func adminKey(r *http.Request) (string, error) {
	if id, ok := auth.AccountIDFromContext(r.Context()); ok {
		return "admin:" + strconv.FormatInt(id, 10), nil
	}
	return httprate.KeyByRealIP(r)
}
