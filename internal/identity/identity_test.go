package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestTokenDeterministic(t *testing.T) {
	a := Token("abc123", "k")
	b := Token("abc123", "k")
	if a != b {
		t.Errorf("same inputs produced different tokens: %s vs %s", a, b)
	}
}

func TestTokenMatchesKeyedHash(t *testing.T) {
	sum := sha256.Sum256([]byte("k:abc123"))
	want := hex.EncodeToString(sum[:])
	if got := Token("abc123", "k"); got != want {
		t.Errorf("Token(abc123, k) = %s, want %s", got, want)
	}
}

func TestTokenSecretSensitive(t *testing.T) {
	if Token("abc123", "k1") == Token("abc123", "k2") {
		t.Error("different secrets produced identical tokens")
	}
}

func TestTokenIDSensitive(t *testing.T) {
	if Token("abc123", "k") == Token("abc124", "k") {
		t.Error("different raw IDs produced identical tokens")
	}
}
