package token

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// certsEndpointSuffix is the Keycloak realm certificates endpoint.
const certsEndpointSuffix = "/protocol/openid-connect/certs"

// ErrJWKSFetchFailed is returned when the realm key set cannot be fetched.
var ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

// JWKS represents the JSON Web Key Set published by the realm.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet fetches and caches the realm's RSA public keys and verifies
// compact token signatures against them. It backs the hardened
// validation mode and is never consulted in the default configuration.
type KeySet struct {
	jwksURL    string
	httpClient *http.Client

	cache    *JWKS
	cacheExp time.Time
	cacheTTL time.Duration
	cacheMu  sync.RWMutex

	keyCache   map[string]*rsa.PublicKey
	keyCacheMu sync.RWMutex
}

// KeySetConfig holds configuration for a KeySet.
type KeySetConfig struct {
	IssuerBase  string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// NewKeySet creates a KeySet for the realm identified by the issuer base URL.
func NewKeySet(cfg KeySetConfig) *KeySet {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 1 * time.Hour
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	return &KeySet{
		jwksURL:  IssuerBase(cfg.IssuerBase) + certsEndpointSuffix,
		cacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		keyCache: make(map[string]*rsa.PublicKey),
	}
}

// VerifySignature checks the RS256 signature of a compact token against
// the realm keys. Claim validation is left entirely to the Validator.
func (ks *KeySet) VerifySignature(ctx context.Context, compact string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.Parse(compact, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}
		return ks.publicKey(ctx, kid)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	return nil
}

// Fetch retrieves the JWKS document, serving from cache while fresh.
func (ks *KeySet) Fetch(ctx context.Context) (*JWKS, error) {
	ks.cacheMu.RLock()
	if ks.cache != nil && time.Now().Before(ks.cacheExp) {
		defer ks.cacheMu.RUnlock()
		return ks.cache, nil
	}
	ks.cacheMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := ks.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	ks.cacheMu.Lock()
	ks.cache = &jwks
	ks.cacheExp = time.Now().Add(ks.cacheTTL)
	ks.cacheMu.Unlock()

	return &jwks, nil
}

// Invalidate drops the cached key set, forcing a refetch on next use.
func (ks *KeySet) Invalidate() {
	ks.cacheMu.Lock()
	ks.cache = nil
	ks.cacheExp = time.Time{}
	ks.cacheMu.Unlock()

	ks.keyCacheMu.Lock()
	ks.keyCache = make(map[string]*rsa.PublicKey)
	ks.keyCacheMu.Unlock()
}

// publicKey resolves the RSA public key for a kid, caching parsed keys.
func (ks *KeySet) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ks.keyCacheMu.RLock()
	if key, exists := ks.keyCache[kid]; exists {
		ks.keyCacheMu.RUnlock()
		return key, nil
	}
	ks.keyCacheMu.RUnlock()

	jwks, err := ks.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	var jwk *JWK
	for i := range jwks.Keys {
		if jwks.Keys[i].Kid == kid {
			jwk = &jwks.Keys[i]
			break
		}
	}
	if jwk == nil {
		return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
	}

	key, err := jwkToRSAPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	ks.keyCacheMu.Lock()
	ks.keyCache[kid] = key
	ks.keyCacheMu.Unlock()

	return key, nil
}

func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
