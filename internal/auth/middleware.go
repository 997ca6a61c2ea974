package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
)

// contextKey is an unexported type for context keys in this package: only
// this package can create keys of this type, so no other package can read
// or shadow the claims we store in the request context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header (the
// desktop agent is not a browser — there are no cookies), validates it, and
// stores the claims in the request context. Missing or invalid tokens stop
// the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the authenticated session claims.
// Returns (nil, false) for anonymous requests — only possible on routes
// that are not behind RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// extractClaims reads and validates the bearer token.
func extractClaims(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, apperror.Unauthorized("missing credentials")
	}
	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
