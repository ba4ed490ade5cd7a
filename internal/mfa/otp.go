package mfa

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	otpDigits = 6
	otpMin    = 100000
	otpSpan   = 900000 // otpMin..999999 inclusive
)

// GenerateOTP returns a 6-digit numeric OTP string in the range 100000–999999 (never zero-padded).
// Uses crypto/rand; each value in the range is equally likely.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(otpMin+n.Int64(), 10), nil
}

// ValidFormat reports whether s has the shape GenerateOTP produces.
func ValidFormat(s string) bool {
	if len(s) != otpDigits || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// HashOTP returns the hex-encoded HMAC-SHA256 of otp under key. The pending_otp cookie carries this
// value so a client cannot read the code back out of its own cookie.
func HashOTP(key []byte, otp string) string {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(otp))
	return hex.EncodeToString(m.Sum(nil))
}

// OTPEqual performs constant-time comparison of the provided OTP's hash with the stored hash.
func OTPEqual(key []byte, providedOTP, storedHash string) bool {
	if providedOTP == "" || storedHash == "" {
		return false
	}
	providedHash := HashOTP(key, providedOTP)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
