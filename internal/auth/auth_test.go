package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 42 {
		t.Fatalf("expected uid 42, got %d", uid)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := SignJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := SignJWT(42, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseJWT_Garbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", "secret"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}
