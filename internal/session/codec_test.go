package session

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSecureCookieCodec_ScopedToName(t *testing.T) {
	c := NewSecureCookieCodec(bytes.Repeat([]byte("h"), 32), nil, time.Hour)
	enc, err := c.Encode("otp_verified", "true", time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var v string
	if err := c.Decode("otp_verified", enc, &v); err != nil || v != "true" {
		t.Fatalf("Decode = %q, %v", v, err)
	}
	if err := c.Decode("admin_session", enc, &v); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode under other name: err = %v, want ErrDecode", err)
	}
}

func TestSecureCookieCodec_Tampered(t *testing.T) {
	c := NewSecureCookieCodec(bytes.Repeat([]byte("h"), 32), bytes.Repeat([]byte("b"), 16), time.Hour)
	enc, err := c.Encode("admin_session", "authenticated", time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tampered := enc[:len(enc)-2] + "xx"
	var v string
	if err := c.Decode("admin_session", tampered, &v); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode tampered: err = %v, want ErrDecode", err)
	}
}
