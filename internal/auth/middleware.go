package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey int

const identityContextKey contextKey = iota

// IdentityFromContext extracts the authenticated caller identity from the
// request context. Returns an empty string if no identity is present
// (unauthenticated request).
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityContextKey).(string)
	return identity
}

// WithIdentity places a caller identity in the context. Exposed for tests
// that exercise handlers without real tokens.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Middleware returns an HTTP middleware that verifies bearer tokens and puts
// the verified subject in the request context. The specific verification
// failure is logged but never disclosed to the caller.
func Middleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				log.Warn().Str("path", r.URL.Path).Msg("Missing Authorization header")
				writeUnauthorized(w, "Not authenticated")
				return
			}

			subject, err := verifier.Subject(r.Context(), tokenString)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Token verification failed")
				writeUnauthorized(w, "Invalid or expired token.")
				return
			}

			ctx := WithIdentity(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
