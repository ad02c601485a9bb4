package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure causes. These are logged server-side only; the HTTP
// boundary collapses all of them into one generic 401 so callers cannot
// probe which check failed.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token missing subject")
)

// Verifier validates bearer tokens issued by an external identity provider
// and extracts the caller identity from the subject claim.
//
// The signing algorithm is pinned to RS256. The token's own alg header is
// only consulted against this allow-list, never trusted on its own, which
// blocks algorithm-confusion downgrades.
type Verifier struct {
	keys     *KeySet
	issuer   string
	audience string
}

// NewVerifier creates a verifier. audience is optional; when empty the
// audience claim is not checked.
func NewVerifier(keys *KeySet, issuer, audience string) *Verifier {
	return &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
	}
}

// Subject verifies the token and returns its subject claim.
//
// Checks run in order: key id lookup against the cached key set, RS256
// signature, issuer equality, audience (only when configured), and the
// standard exp/nbf timestamps. Any failure is wrapped in ErrInvalidToken.
func (v *Verifier) Subject(ctx context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrUnknownKeyID)
		}
		return v.keys.Get(ctx, kid)
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	return claims.Subject, nil
}
