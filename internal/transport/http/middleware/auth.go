package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwtinfra "github.com/callog-relay/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenStr string) (*jwtinfra.Claims, error)
}

// AnyVerifier accepts a token that any of its verifiers accepts, trying
// them in order.
type AnyVerifier []TokenVerifier

func (vs AnyVerifier) Verify(ctx context.Context, tokenStr string) (*jwtinfra.Claims, error) {
	err := errors.New("no verifier configured")
	for _, v := range vs {
		var claims *jwtinfra.Claims
		if claims, err = v.Verify(ctx, tokenStr); err == nil {
			return claims, nil
		}
	}
	return nil, err
}

// Auth returns middleware that validates the Bearer JWT and injects claims into context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := verifier.Verify(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
