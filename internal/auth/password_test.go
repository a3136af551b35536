package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	valid, err := CheckPassword("changeme", hash)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !valid {
		t.Fatal("Correct password was rejected")
	}

	valid, err = CheckPassword("wrongpassword", hash)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if valid {
		t.Fatal("Wrong password was accepted")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Error("hashes of the same password should differ by salt")
	}
}

func TestCheckPassword_LegacyParams(t *testing.T) {
	// Hash for "changeme" with m=65536,t=1,p=4.
	legacy := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	valid, err := CheckPassword("changeme", legacy)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !valid {
		t.Fatal("legacy hash rejected correct password")
	}
	if !NeedsRehash(legacy) {
		t.Error("legacy hash should need rehash")
	}
}

func TestNeedsRehash_Current(t *testing.T) {
	hash, _ := HashPassword("x")
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
	if !NeedsRehash("garbage") {
		t.Error("garbage should need rehash")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=abc$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	}
	for _, h := range tests {
		if _, err := CheckPassword("x", h); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("CheckPassword(%q) err = %v, want ErrMalformedHash", h, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a@x.com", "a@x.com"},
		{"  User@Example.COM ", "User@example.com"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
