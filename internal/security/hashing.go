package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies the admin password with bcrypt. Callers must not
// log or persist the plaintext.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to 4–31.
// Zero or negative selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	cost = max(bcrypt.MinCost, min(cost, bcrypt.MaxCost))
	return &Hasher{Cost: cost}
}

// Hash produces the encoded bcrypt hash of password, suitable for ADMIN_PASSWORD_HASH.
func (h *Hasher) Hash(password []byte) (string, error) {
	if len(password) == 0 {
		return "", ErrMissingField
	}
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil if password matches hash. Mismatch and malformed hash both return an error.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// HashCost reports the cost encoded in hash. Used by the admin CLI to warn about weak hashes.
func HashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
