package oauth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, key *rsa.PrivateKey, header, claims map[string]interface{}) string {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)
	claimsJSON, err := json.Marshal(claims)
	require.NoError(t, err)
	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)
	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature)
}

func newTestValidator(t *testing.T) (*Validator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := NewJWKSCache("")
	cache.Put(JWK{
		Kty: "RSA",
		Kid: "k1",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
	})
	return &Validator{
		JWKS:     cache,
		Issuer:   "https://idp/",
		Audience: "api",
		now:      time.Now,
	}, key
}

func standardClaims(exp time.Time) map[string]interface{} {
	return map[string]interface{}{
		"iss": "https://idp/",
		"aud": []string{"api", "other"},
		"sub": "user-1",
		"exp": exp.Unix(),
	}
}

func TestValidator_Authorized(t *testing.T) {
	validator, key := newTestValidator(t)
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "k1"}, standardClaims(time.Now().Add(time.Minute)))

	claims, err := validator.Validate(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
}

func TestValidator_TamperedPayload(t *testing.T) {
	validator, key := newTestValidator(t)
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "k1"}, standardClaims(time.Now().Add(time.Minute)))

	// mutate one byte of the payload without re-signing
	tampered, err := json.Marshal(map[string]interface{}{
		"iss": "https://idp/",
		"aud": []string{"api", "other"},
		"sub": "user-2",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	require.NoError(t, err)
	parts := splitToken(token)
	parts[1] = base64.RawURLEncoding.EncodeToString(tampered)
	_, err = validator.Validate(context.Background(), parts[0]+"."+parts[1]+"."+parts[2])
	assert.ErrorIs(t, err, ErrSignatureFailed)
}

func TestValidator_Expired(t *testing.T) {
	validator, key := newTestValidator(t)
	// no skew tolerance for this check
	validator.Skew = 0
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "k1"}, standardClaims(time.Now().Add(-time.Second)))

	_, err := validator.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidator_WrongAudience(t *testing.T) {
	validator, key := newTestValidator(t)
	claims := standardClaims(time.Now().Add(time.Minute))
	claims["aud"] = []string{"someone-else"}
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "k1"}, claims)

	_, err := validator.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestValidator_WrongIssuer(t *testing.T) {
	validator, key := newTestValidator(t)
	claims := standardClaims(time.Now().Add(time.Minute))
	claims["iss"] = "https://evil/"
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "k1"}, claims)

	_, err := validator.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestValidator_JWENotSupported(t *testing.T) {
	validator, _ := newTestValidator(t)
	_, err := validator.Validate(context.Background(), "a.b.c.d.e")
	assert.ErrorIs(t, err, ErrJWENotSupported)
}

func TestValidator_UnsupportedAlgorithm(t *testing.T) {
	validator, key := newTestValidator(t)
	token := signToken(t, key, map[string]interface{}{"alg": "HS256", "kid": "k1"}, standardClaims(time.Now().Add(time.Minute)))

	_, err := validator.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestValidator_UnknownKid(t *testing.T) {
	validator, key := newTestValidator(t)
	token := signToken(t, key, map[string]interface{}{"alg": "RS256", "kid": "nope"}, standardClaims(time.Now().Add(time.Minute)))

	_, err := validator.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidator_InvalidFormat(t *testing.T) {
	validator, _ := newTestValidator(t)
	_, err := validator.Validate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func splitToken(token string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			parts = append(parts, token[start:i])
			start = i + 1
		}
	}
	parts = append(parts, token[start:])
	return parts
}
