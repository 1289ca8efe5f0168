package auth

import (
	"testing"
	"time"
)

func TestCreateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	token, err := CreateToken(secret, "driver-123", time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	sub, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if sub != "driver-123" {
		t.Fatalf("sub = %q, want driver-123", sub)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := CreateToken("secret-a", "driver-123", time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := CreateToken("secret", "driver-123", -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := ValidateToken("secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
