package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://issuer.example.com"

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// jwksDocument builds a JWKS body for the given kid/key pairs.
func jwksDocument(keys map[string]*rsa.PublicKey) map[string]any {
	var entries []map[string]any
	for kid, key := range keys {
		entries = append(entries, map[string]any{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		})
	}
	return map[string]any{"keys": entries}
}

func newJWKSServer(t *testing.T, keys map[string]*rsa.PublicKey) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(jwksDocument(keys)))
	}))
	t.Cleanup(server.Close)
	return server, &fetches
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	tokenStr, err := token.SignedString(key)
	require.NoError(t, err)
	return tokenStr
}

func validClaims(subject string) *jwt.RegisteredClaims {
	return &jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerifierSubject(t *testing.T) {
	key := generateRSAKey(t)
	jwks, _ := newJWKSServer(t, map[string]*rsa.PublicKey{"key-1": &key.PublicKey})

	verifier := NewVerifier(NewKeySet(jwks.URL, nil), testIssuer, "")
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		tokenStr := signToken(t, key, "key-1", validClaims("user_123"))

		subject, err := verifier.Subject(ctx, tokenStr)
		require.NoError(t, err)
		require.Equal(t, "user_123", subject)
	})

	t.Run("unknown kid", func(t *testing.T) {
		tokenStr := signToken(t, key, "key-2", validClaims("user_123"))

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, ErrUnknownKeyID)
	})

	t.Run("missing kid header", func(t *testing.T) {

		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("user_123"))
		tokenStr, err := token.SignedString(key)
		require.NoError(t, err)

		_, err = verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims("user_123")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		tokenStr := signToken(t, key, "key-1", claims)

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("not yet valid token", func(t *testing.T) {
		claims := validClaims("user_123")
		claims.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
		tokenStr := signToken(t, key, "key-1", claims)

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims("user_123")
		claims.Issuer = "https://evil.example.com"
		tokenStr := signToken(t, key, "key-1", claims)

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims("")
		tokenStr := signToken(t, key, "key-1", claims)

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("disallowed signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user_123"))
		token.Header["kid"] = "key-1"
		tokenStr, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signature from another key", func(t *testing.T) {
		other := generateRSAKey(t)
		tokenStr := signToken(t, other, "key-1", validClaims("user_123"))

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifierAudience(t *testing.T) {
	key := generateRSAKey(t)
	jwks, _ := newJWKSServer(t, map[string]*rsa.PublicKey{"key-1": &key.PublicKey})
	ctx := context.Background()

	t.Run("audience checked when configured", func(t *testing.T) {
		verifier := NewVerifier(NewKeySet(jwks.URL, nil), testIssuer, "tracker-api")

		claims := validClaims("user_123")
		claims.Audience = jwt.ClaimStrings{"other-api"}
		tokenStr := signToken(t, key, "key-1", claims)

		_, err := verifier.Subject(ctx, tokenStr)
		require.ErrorIs(t, err, ErrInvalidToken)

		claims.Audience = jwt.ClaimStrings{"tracker-api"}
		tokenStr = signToken(t, key, "key-1", claims)

		subject, err := verifier.Subject(ctx, tokenStr)
		require.NoError(t, err)
		require.Equal(t, "user_123", subject)
	})

	t.Run("audience skipped when not configured", func(t *testing.T) {
		verifier := NewVerifier(NewKeySet(jwks.URL, nil), testIssuer, "")

		claims := validClaims("user_123")
		claims.Audience = jwt.ClaimStrings{"anything"}
		tokenStr := signToken(t, key, "key-1", claims)

		subject, err := verifier.Subject(ctx, tokenStr)
		require.NoError(t, err)
		require.Equal(t, "user_123", subject)
	})
}

func TestKeySetFetchedOnce(t *testing.T) {
	key := generateRSAKey(t)
	jwks, fetches := newJWKSServer(t, map[string]*rsa.PublicKey{"key-1": &key.PublicKey})

	keys := NewKeySet(jwks.URL, nil)
	ctx := context.Background()

	_, err := keys.Get(ctx, "key-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, fetches.Load())

	_, err = keys.Get(ctx, "key-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, fetches.Load())

	// A kid that arrived after the initial fetch is not picked up; the cache
	// lives for the process lifetime.
	_, err = keys.Get(ctx, "rotated-key")
	require.ErrorIs(t, err, ErrUnknownKeyID)
	require.EqualValues(t, 1, fetches.Load())
}

func TestKeySetFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	keys := NewKeySet(server.URL, nil)

	_, err := keys.Get(context.Background(), "key-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWKS request failed")
}
