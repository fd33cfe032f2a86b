package utils

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty hash")
	}
	if hash == "secret123" {
		t.Error("hash should not equal the plaintext password")
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	hash1, _ := HashPassword("secret123")
	hash2, _ := HashPassword("secret123")

	if hash1 == hash2 {
		t.Error("same password should produce different hashes (random salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, _ := HashPassword("secret123")

	if !CheckPassword("secret123", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("wrong password should not verify")
	}
	if CheckPassword("", hash) {
		t.Error("empty password should not verify")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("secret123", "not-a-bcrypt-hash") {
		t.Error("invalid hash should not verify")
	}
}
