package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/studyhub/internal/models"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key for storing token claims in context
	ClaimsContextKey contextKey = "claims"
)

// AccountReader fetches the current state of the caller's account.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

// LoginChecker reports why an account may not log in, or nil.
type LoginChecker interface {
	Check(ctx context.Context, accountID int64) error
}

// AuthMiddleware validates JWT tokens and injects claims into context
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireLoginEligible rejects callers whose account can no longer log in.
// A token issued before a ban, suspension or deletion stops working at once.
func RequireLoginEligible(gate LoginChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			if err := gate.Check(r.Context(), claims.AccountID); err != nil {
				switch {
				case errors.Is(err, models.ErrNotFound):
					pkghttp.WriteUnauthorized(w, "account not found")
				case errors.Is(err, models.ErrAccountDeleted),
					errors.Is(err, models.ErrAccountBanned),
					errors.Is(err, models.ErrAccountSuspended),
					errors.Is(err, models.ErrAccountDisabled):
					pkghttp.WriteForbidden(w, err.Error())
				default:
					pkghttp.WriteInternalError(w, "internal server error")
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole creates a middleware that enforces role-based access control
// against the account's current role, not the role at token issue time.
func RequireRole(accounts AccountReader, role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			account, err := accounts.GetByID(r.Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "account not found")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if account.Role != role {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// GetClaimsFromContext extracts token claims from request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok || claims == nil {
		return 0, false
	}
	return claims.AccountID, true
}
