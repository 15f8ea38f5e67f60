package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	digest, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if digest == "s3cret" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !CheckPassword(digest, "s3cret") {
		t.Error("correct password failed verification")
	}
	if CheckPassword(digest, "s3cret ") {
		t.Error("wrong password passed verification")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	d1, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	d2, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password should differ (salting)")
	}
}

func TestDefaultPassword(t *testing.T) {
	tests := []struct {
		firstname, lastname, want string
	}{
		{"Grace", "Hopper", "GHopper"},
		{"ada", "lovelace", "alovelace"},
		{"", "Turing", "Turing"},
	}
	for _, tt := range tests {
		if got := DefaultPassword(tt.firstname, tt.lastname); got != tt.want {
			t.Errorf("DefaultPassword(%q, %q) = %q, want %q", tt.firstname, tt.lastname, got, tt.want)
		}
	}
}
