package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"chatapi/domain/authz"
	"chatapi/pkg/auth"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// PrincipalResolver turns a bearer token into the calling principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*authz.Principal, error)
}

// Authenticate attaches the caller's principal to the request context.
// Requests without an Authorization header pass through anonymously and
// the service layer decides whether that is allowed; a header that does
// not resolve is rejected here.
func Authenticate(resolver PrincipalResolver, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				errs.Handle(w, r, apperrors.NewUnauthorizedError("invalid authorization header format"))
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				errs.Handle(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)))
		})
	}
}

// bearerToken accepts "Bearer <token>" and a bare token.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	switch len(parts) {
	case 1:
		return parts[0], true
	case 2:
		if strings.EqualFold(parts[0], "Bearer") {
			return parts[1], true
		}
	}
	return "", false
}

// RateLimit rejects clients that exceed limiter's budget, keyed by IP.
func RateLimit(limiter auth.RateLimiter, limit int, window string, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				errs.Handle(w, r, apperrors.Wrap(err, "rate limiter unavailable"))
				return
			}
			if !allowed {
				errs.Handle(w, r, apperrors.NewRateLimitError(limit, window))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the address set by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
