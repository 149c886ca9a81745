package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Strong!PasswordH3R3")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Strong!PasswordH3R3" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword("Strong!PasswordH3R3", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong-password", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password to fail validation")
	}
	if err := ValidatePassword("long-enough-password"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}
