package security_test

import (
	"strings"
	"testing"

	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/security"
)

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := testHasher()

	hash, err := hasher.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash header %q", hash)
	}

	ok, err := hasher.Verify("very-secure-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("Verify failed for the correct password")
	}

	ok, err = hasher.Verify("bogus-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := testHasher().Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		if _, err := testHasher().Verify("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := security.ValidatePassword("short"); err == nil {
		t.Fatal("expected short password to fail")
	}
	if err := security.ValidatePassword("long-enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
