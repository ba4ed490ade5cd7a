package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"portfolio-admin/internal/security"
)

// ErrDecode is returned when a cookie value fails signature, scope, or expiry checks.
var ErrDecode = errors.New("session: invalid cookie value")

// Codec signs cookie values and binds each one to its cookie name.
type Codec interface {
	Encode(name string, value any, maxAge time.Duration) (string, error)
	Decode(name, encoded string, dst any) error
}

// SecureCookieCodec encodes with gorilla/securecookie: HMAC-SHA256 over name and value,
// plus AES when a block key is set. Timestamps older than the configured max age are rejected.
type SecureCookieCodec struct {
	sc *securecookie.SecureCookie
}

// NewSecureCookieCodec returns a codec using hashKey for HMAC and optional blockKey for encryption.
// maxAge bounds how long any encoded value stays decodable.
func NewSecureCookieCodec(hashKey, blockKey []byte, maxAge time.Duration) *SecureCookieCodec {
	if len(blockKey) == 0 {
		blockKey = nil
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(maxAge / time.Second))
	return &SecureCookieCodec{sc: sc}
}

// Encode signs value for name. The per-value maxAge is enforced by the cookie attributes;
// the codec-wide max age applies on decode.
func (c *SecureCookieCodec) Encode(name string, value any, maxAge time.Duration) (string, error) {
	s, err := c.sc.Encode(name, value)
	if err != nil {
		return "", fmt.Errorf("session: encode %s: %w", name, err)
	}
	return s, nil
}

// Decode verifies encoded under name and stores the value in dst.
func (c *SecureCookieCodec) Decode(name, encoded string, dst any) error {
	if err := c.sc.Decode(name, encoded, dst); err != nil {
		return ErrDecode
	}
	return nil
}

// JWTCodec encodes values as RS256/ES256 tokens with the cookie name as subject.
type JWTCodec struct {
	tokens *security.TokenProvider
}

// NewJWTCodec returns a codec backed by tokens.
func NewJWTCodec(tokens *security.TokenProvider) *JWTCodec {
	return &JWTCodec{tokens: tokens}
}

// Encode issues a token for name that expires after maxAge.
func (c *JWTCodec) Encode(name string, value any, maxAge time.Duration) (string, error) {
	s, err := c.tokens.Issue(name, value, maxAge)
	if err != nil {
		return "", fmt.Errorf("session: encode %s: %w", name, err)
	}
	return s, nil
}

// Decode validates the token against name and stores the value in dst.
func (c *JWTCodec) Decode(name, encoded string, dst any) error {
	if err := c.tokens.Validate(name, encoded, dst); err != nil {
		return ErrDecode
	}
	return nil
}
