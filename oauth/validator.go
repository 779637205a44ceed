package oauth

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// jwtHeader is the decoded JOSE header of a compact JWT.
type jwtHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// jwtClaims is the subset of registered claims the validator checks.
type jwtClaims struct {
	Issuer   string          `json:"iss"`
	Subject  string          `json:"sub"`
	Audience json.RawMessage `json:"aud"`
	Azp      string          `json:"azp,omitempty"`
	Exp      int64           `json:"exp"`
	Nbf      int64           `json:"nbf,omitempty"`
	Iat      int64           `json:"iat,omitempty"`
}

// audiences tolerates aud being either a bare string or an array.
func (c *jwtClaims) audiences() []string {
	if len(c.Audience) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(c.Audience, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(c.Audience, &list); err == nil {
		return list
	}
	return nil
}

// Validator verifies RS256-signed JWTs against a JWKS and the configured
// issuer/audience/azp expectations.
type Validator struct {
	JWKS            *JWKSCache
	Issuer          string
	Audience        string
	AuthorizedParty string
	Skew            time.Duration
	now             func() time.Time
}

// NewValidator creates a Validator from config, wiring a JWKS cache on the
// configured (or discovered) endpoint.
func NewValidator(config *Config) *Validator {
	return &Validator{
		JWKS:            NewJWKSCache(config.JWKSEndpoint),
		Issuer:          config.Issuer,
		Audience:        config.Audience,
		AuthorizedParty: config.AuthorizedParty,
		Skew:            config.Skew(),
		now:             time.Now,
	}
}

// AsTokenValidator adapts the validator to the transport's TokenValidator
// contract.
func (v *Validator) AsTokenValidator() TokenValidator {
	return func(ctx context.Context, token string) error {
		if _, err := v.Validate(ctx, token); err != nil {
			return NewUnauthorized(err)
		}
		return nil
	}
}

// Validate runs the full pipeline: segment split, base64url decode, alg and
// kid checks, RSA-PKCS1v15-SHA256 signature verification, then claim
// validation. It returns the verified claims on success.
func (v *Validator) Validate(ctx context.Context, token string) (map[string]interface{}, error) {
	segments := strings.Split(token, ".")
	switch len(segments) {
	case 3:
	case 5:
		return nil, ErrJWENotSupported
	default:
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidFormat, len(segments))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidBase64, err)
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidBase64, err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(segments[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidBase64, err)
	}

	header := &jwtHeader{}
	if err := json.Unmarshal(headerBytes, header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidJSON, err)
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, header.Alg)
	}

	key, err := v.JWKS.Key(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	publicKey, err := key.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, err)
	}

	signed := sha256.Sum256([]byte(segments[0] + "." + segments[1]))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, signed[:], signature); err != nil {
		return nil, ErrSignatureFailed
	}

	claims := &jwtClaims{}
	if err := json.Unmarshal(payloadBytes, claims); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidJSON, err)
	}
	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}

	allClaims := map[string]interface{}{}
	if err := json.Unmarshal(payloadBytes, &allClaims); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidJSON, err)
	}
	return allClaims, nil
}

func (v *Validator) validateClaims(claims *jwtClaims) error {
	now := v.now()
	skew := v.Skew
	if claims.Exp > 0 && now.After(time.Unix(claims.Exp, 0).Add(skew)) {
		return ErrExpired
	}
	if claims.Nbf > 0 && now.Before(time.Unix(claims.Nbf, 0).Add(-skew)) {
		return ErrNotYetValid
	}
	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return fmt.Errorf("%w: %q", ErrInvalidIssuer, claims.Issuer)
	}
	if v.Audience != "" {
		found := false
		for _, audience := range claims.audiences() {
			if audience == v.Audience {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: expected %q", ErrInvalidAudience, v.Audience)
		}
	}
	if v.AuthorizedParty != "" && claims.Azp != v.AuthorizedParty {
		return fmt.Errorf("%w: %q", ErrInvalidAzp, claims.Azp)
	}
	return nil
}
