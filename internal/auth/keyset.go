package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnknownKeyID indicates a token referenced a key id that is not present
// in the fetched key set.
var ErrUnknownKeyID = errors.New("unknown key id")

// KeySet is a process-wide cache of an identity provider's JWKS. The set is
// fetched lazily on first use and reused for the lifetime of the process;
// there is no TTL or background refresh, so a provider-side key rotation
// requires a restart before tokens signed with the new key verify.
type KeySet struct {
	url        string
	httpClient *http.Client

	mu     sync.RWMutex
	keys   map[string]*rsa.PublicKey // kid -> public key
	loaded bool
}

// NewKeySet creates a key set cache for the given JWKS endpoint.
func NewKeySet(url string, httpClient *http.Client) *KeySet {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &KeySet{
		url:        url,
		httpClient: httpClient,
	}
}

// Get returns the public key for a kid, fetching the key set first if it has
// not been loaded yet. Concurrent first calls may each fetch; the last write
// wins, which is harmless since they fetch the same document.
func (k *KeySet) Get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	loaded := k.loaded
	key, ok := k.keys[kid]
	k.mu.RUnlock()

	if loaded {
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
		}
		return key, nil
	}

	keys, err := k.fetch(ctx)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.keys = keys
	k.loaded = true
	k.mu.Unlock()

	key, ok = keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
	}

	return key, nil
}

// fetch retrieves and parses the JWKS document.
func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	log.Debug().Str("jwks_url", k.url).Msg("Fetching JWKS")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, jwk := range jwks.Keys {
		key, err := parseRSAJWK(jwk)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to parse JWK")
			continue
		}

		kid, ok := jwk["kid"].(string)
		if !ok {
			log.Warn().Msg("JWK missing kid")
			continue
		}

		keys[kid] = key
	}

	log.Info().Int("total_keys", len(keys)).Msg("Cached JWKS")
	return keys, nil
}

// parseRSAJWK parses a JWK (JSON Web Key) into an RSA public key.
func parseRSAJWK(jwk map[string]any) (*rsa.PublicKey, error) {
	kty, ok := jwk["kty"].(string)
	if !ok || kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %v", kty)
	}

	nStr, ok := jwk["n"].(string)
	if !ok {
		return nil, fmt.Errorf("missing modulus")
	}

	eStr, ok := jwk["e"].(string)
	if !ok {
		return nil, fmt.Errorf("missing exponent")
	}

	nBytes, err := decodeBase64URL(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := decodeBase64URL(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

// decodeBase64URL decodes a base64url-encoded string, padded or not.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
