package oauth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// JWK is one key of a JSON Web Key Set. Only the RSA fields this runtime
// verifies RS256 signatures with are decoded.
type JWK struct {
	Kty string   `json:"kty"`
	Kid string   `json:"kid"`
	Use string   `json:"use,omitempty"`
	Alg string   `json:"alg,omitempty"`
	N   string   `json:"n,omitempty"`
	E   string   `json:"e,omitempty"`
	X5c []string `json:"x5c,omitempty"`
}

// JWKS is a JSON Web Key Set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicKey materializes the RSA public key, preferring the modulus and
// exponent and falling back to the first x5c certificate.
func (k *JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.N != "" && k.E != "" {
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("invalid modulus for kid %q: %w", k.Kid, err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("invalid exponent for kid %q: %w", k.Kid, err)
		}
		e := 0
		for _, b := range eBytes {
			e = e<<8 | int(b)
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
	}
	if len(k.X5c) > 0 {
		der, err := base64.StdEncoding.DecodeString(k.X5c[0])
		if err != nil {
			return nil, fmt.Errorf("invalid x5c for kid %q: %w", k.Kid, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("invalid x5c certificate for kid %q: %w", k.Kid, err)
		}
		publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("x5c certificate for kid %q is not RSA", k.Kid)
		}
		return publicKey, nil
	}
	return nil, fmt.Errorf("key %q carries neither modulus/exponent nor x5c", k.Kid)
}

// JWKSCache fetches and caches the issuer's key set. Entries refresh after
// TTL; a fetch failure while a cached copy exists serves the stale copy.
type JWKSCache struct {
	Endpoint string
	TTL      time.Duration
	client   *http.Client

	mux       sync.Mutex
	keys      map[string]*JWK
	fetchedAt time.Time
}

// NewJWKSCache creates a cache for endpoint with a 5 minute refresh TTL.
func NewJWKSCache(endpoint string) *JWKSCache {
	return &JWKSCache{
		Endpoint: endpoint,
		TTL:      5 * time.Minute,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Key returns the JWK with the given kid, refreshing the set when stale.
func (c *JWKSCache) Key(ctx context.Context, kid string) (*JWK, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.keys == nil || time.Since(c.fetchedAt) > c.TTL {
		if err := c.refresh(ctx); err != nil {
			if c.keys == nil {
				return nil, err
			}
		}
	}
	key, ok := c.keys[kid]
	if !ok {
		// the kid may belong to a freshly rotated key; force one refetch
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		if key, ok = c.keys[kid]; !ok {
			return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
		}
	}
	return key, nil
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s returned %d: %s", ErrJWKSFetchFailed, c.Endpoint, resp.StatusCode, body)
	}
	document := &JWKS{}
	if err := json.NewDecoder(resp.Body).Decode(document); err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	keys := make(map[string]*JWK, len(document.Keys))
	for i := range document.Keys {
		key := document.Keys[i]
		keys[key.Kid] = &key
	}
	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}

// Put seeds the cache directly, used by tests and by deployments that pin
// a static key set.
func (c *JWKSCache) Put(keys ...JWK) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.keys == nil {
		c.keys = make(map[string]*JWK, len(keys))
	}
	for i := range keys {
		key := keys[i]
		c.keys[key.Kid] = &key
	}
	c.fetchedAt = time.Now()
}
