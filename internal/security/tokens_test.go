package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

type cookieValue struct {
	Verified bool   `json:"verified"`
	Label    string `json:"label"`
}

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, err := p.Issue("otp_verified", cookieValue{Verified: true, Label: "x"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var got cookieValue
	if err := p.Validate("otp_verified", token, &got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !got.Verified || got.Label != "x" {
		t.Errorf("Validate value = %+v", got)
	}
}

func TestTokenProvider_RejectsOtherSubject(t *testing.T) {
	p, _ := NewTestTokenProvider()
	token, err := p.Issue("otp_verified", true, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var v bool
	if err := p.Validate("admin_session", token, &v); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate under other name: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_RejectsExpired(t *testing.T) {
	p, _ := NewTestTokenProvider()
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return issued }
	token, err := p.Issue("pending_otp", "v", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p.now = func() time.Time { return issued.Add(2 * time.Minute) }
	var v string
	if err := p.Validate("pending_otp", token, &v); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate expired: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_RejectsOtherAudience(t *testing.T) {
	p, _ := NewTestTokenProvider()
	token, _ := p.Issue("otp_verified", true, time.Hour)

	other := NewTokenProvider(p.privateKey, p.publicKey, "test-issuer", "another-audience")
	var v bool
	if err := other.Validate("otp_verified", token, &v); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate other audience: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_RejectsGarbage(t *testing.T) {
	p, _ := NewTestTokenProvider()
	var v bool
	if err := p.Validate("otp_verified", "invalid-token", &v); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate garbage: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_ES256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := NewTokenProvider(key, key.Public(), "iss", "aud")
	token, err := p.Issue("admin_session", "authenticated", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var v string
	if err := p.Validate("admin_session", token, &v); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v != "authenticated" {
		t.Errorf("value = %q", v)
	}
}
