package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	hash, err := svc.Hash("s3cret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}

	if err := svc.Verify(hash, "s3cret"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := svc.Verify(hash, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestHashesAreSalted(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	first, err := svc.Hash("s3cret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	second, err := svc.Hash("s3cret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if first == second {
		t.Error("expected distinct hashes for the same password")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	if _, err := svc.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for password longer than 72 bytes")
	}
}
