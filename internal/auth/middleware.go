package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// ErrNoClaims is returned when a handler runs without the guard in front.
var ErrNoClaims = errors.New("no authenticated claims in context")

// RequireAuth builds middleware that rejects requests without a valid
// bearer token and attaches the verified claims to the request context.
// Authorization is evaluated exactly once, before any handler logic.
func RequireAuth(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims attached by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(contextClaimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// SubjectFromContext returns the authenticated user ID.
func SubjectFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
