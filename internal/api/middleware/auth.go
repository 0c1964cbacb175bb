// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// Claims is the thin set of fields this service trusts from a bearer token.
// Token issuance, refresh, and the full authentication flow are the
// responsibility of an external identity collaborator; this boundary only
// verifies the signature and exposes the subject to handlers.
type Claims struct {
	Subject string
	Roles   []string
}

type jwtClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// RequireAuth verifies a bearer JWT signed with secretKey and attaches its
// claims to the request context. A missing or invalid token yields 401; an
// authenticated-but-not-permitted request is a 403 the caller's own route
// handler is responsible for returning, not this middleware.
func RequireAuth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifyToken(token, secretKey)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches claims when a valid bearer token is present but
// never rejects the request.
func OptionalAuth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token != "" {
				if claims, err := verifyToken(token, secretKey); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verifyToken(token, secretKey string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	claims := parsed.Claims.(*jwtClaims)
	return Claims{Subject: claims.Subject, Roles: claims.Roles}, nil
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// ClaimsFromContext extracts the verified claims a preceding RequireAuth or
// OptionalAuth call attached to the request context.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}
