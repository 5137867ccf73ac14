package application

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if strings.Contains(digest, "Secret123!") {
		t.Fatalf("digest must not contain the plaintext")
	}

	other, _ := hasher.Hash("Secret123!")
	if other == digest {
		t.Fatalf("expected salted digests to differ")
	}

	if err := hasher.Verify(digest, "Secret123!"); err != nil {
		t.Fatalf("expected matching password to verify, got %v", err)
	}
	if err := hasher.Verify(digest, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := hasher.Verify("not-a-digest", "Secret123!"); err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected malformed digest error, got %v", err)
	}
}

func TestNewBcryptHasher_DefaultsOutOfRangeCost(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(0)
	if hasher.cost != DefaultPasswordCost {
		t.Fatalf("expected default cost %d, got %d", DefaultPasswordCost, hasher.cost)
	}
}
