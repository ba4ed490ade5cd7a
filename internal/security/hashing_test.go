package security

import (
	"errors"
	"testing"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("Pratik.....1")
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash([]byte("Pratik.....1"))
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	if _, err := NewHasher(4).Hash(nil); !errors.Is(err, ErrMissingField) {
		t.Errorf("Hash(nil) err = %v, want ErrMissingField", err)
	}
}

func TestHasher_Cost(t *testing.T) {
	testCases := []struct {
		in, want int
	}{
		{12, 12},
		{0, 10},
		{2, 4},
		{40, 31},
	}
	for _, tc := range testCases {
		if got := NewHasher(tc.in).Cost; got != tc.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHashCost(t *testing.T) {
	hash, err := NewHasher(5).Hash([]byte("secret"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	cost, err := HashCost(hash)
	if err != nil {
		t.Fatalf("HashCost: %v", err)
	}
	if cost != 5 {
		t.Errorf("HashCost = %d, want 5", cost)
	}
	if _, err := HashCost("not-a-hash"); err == nil {
		t.Error("HashCost should fail for malformed hash")
	}
}
