package auth

import "testing"

func TestContinuationSecretRoundTrip(t *testing.T) {
	plaintext, hash, err := NewContinuationSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plaintext == "" || hash == "" {
		t.Fatal("secret and hash must both be non-empty")
	}
	if plaintext == hash {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckContinuationSecret(hash, plaintext) {
		t.Fatal("freshly minted secret should verify")
	}
	if CheckContinuationSecret(hash, "WRONGSECRET") {
		t.Fatal("wrong secret must not verify")
	}
	if CheckContinuationSecret(hash, "") {
		t.Fatal("empty secret must not verify")
	}
}

func TestContinuationSecretsAreUnique(t *testing.T) {
	a, _, err := NewContinuationSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := NewContinuationSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("two secrets should never collide")
	}
}
