package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/studyhub/internal/auth"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
	pkglogger "github.com/BradenHooton/studyhub/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// SecureLogger logs one line per request with sensitive query strings
// redacted. The acting admin is recorded when the request was authenticated.
func SecureLogger(logger *slog.Logger, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// auth runs further down the chain and stores its claims on a
			// derived request, so the id is read back through this holder
			holder := &actorHolder{}
			next.ServeHTTP(wrapped, r.WithContext(withActorHolder(r.Context(), holder)))

			path := r.URL.Path
			if pkglogger.SanitizeQueryString(r.URL.RawQuery) {
				path += "?[REDACTED]"
			} else if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", wrapped.Status()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("client_ip", pkghttp.ExtractClientIP(r, ipConfig)),
			}
			if holder.id != 0 {
				attrs = append(attrs, slog.Int64("admin_id", holder.id))
			}

			level := slog.LevelInfo
			if wrapped.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}

// RecordActor copies the authenticated account id into the holder installed
// by SecureLogger. Mount it after the auth middleware.
func RecordActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if holder, ok := r.Context().Value(actorHolderKey).(*actorHolder); ok {
			if id, ok := auth.AccountIDFromContext(r.Context()); ok {
				holder.id = id
			}
		}
		next.ServeHTTP(w, r)
	})
}
