package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const principalKey contextKey = "principal"

// APIKeyHeader carries the shared secret of machine callers
const APIKeyHeader = "X-API-Key"

// ExtractCredentials reads the bearer token and API key headers without judging them
func ExtractCredentials(r *http.Request) service.Credentials {
	creds := service.Credentials{APIKey: strings.TrimSpace(r.Header.Get(APIKeyHeader))}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		creds.BearerToken = strings.TrimSpace(parts[1])
	}
	return creds
}

// Authorize runs the strategy against the request credentials and stores the principal
// in the request context
func Authorize(strategy service.AuthorizationStrategy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := strategy.Authorize(r.Context(), ExtractCredentials(r))
			if err != nil {
				status := AuthStatus(err)
				if status == http.StatusInternalServerError {
					logger.Error("Authorization lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
					RespondWithError(w, status, "internal server error")
					return
				}
				logger.Debug("Request not authorized", zap.Int("status", status), zap.String("path", r.URL.Path))
				RespondWithError(w, status, err.Error())
				return
			}

			logger.Debug("Caller authorized",
				zap.String("method", principal.Method),
				zap.String("account_id", principal.AccountID.String()),
			)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// AuthStatus maps an authorization failure to 401, 403 or 500
func AuthStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the authorized caller from request context
func GetPrincipal(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*service.Principal)
	return p, ok && p != nil
}
