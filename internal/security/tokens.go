package security

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or bound to another name.
var ErrInvalidToken = errors.New("invalid token")

// CookieClaims carries one cookie value. Subject holds the cookie name so a token
// minted for one cookie is rejected under another.
type CookieClaims struct {
	jwt.RegisteredClaims
	Value json.RawMessage `json:"v"`
}

// TokenProvider signs and validates cookie tokens using RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and validates with publicKey.
// issuer and audience are set on every token and required on validation.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// Issue signs value under subject. ttl <= 0 issues a token without expiry.
func (p *TokenProvider) Issue(subject string, value any, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("security: marshal token value: %w", err)
	}
	now := p.now().UTC()
	claims := CookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Issuer:   p.issuer,
			Audience: jwt.ClaimStrings{p.audience},
			IssuedAt: jwt.NewNumericDate(now),
		},
		Value: raw,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	method, err := signingMethod(p.privateKey.Public())
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
}

// Validate checks signature, expiry, issuer, audience and subject, then decodes the value into dst.
func (p *TokenProvider) Validate(subject, tokenString string, dst any) error {
	claims := &CookieClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return p.publicKey, nil },
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(claims.Value, dst); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func signingMethod(pub crypto.PublicKey) (jwt.SigningMethod, error) {
	switch KeyAlg(pub) {
	case "RS256":
		return jwt.SigningMethodRS256, nil
	case "ES256":
		return jwt.SigningMethodES256, nil
	default:
		return nil, ErrInvalidKey
	}
}
