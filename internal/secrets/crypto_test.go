package secrets

import (
	"strings"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	key := DeriveKey("correct horse battery staple", salt)

	plaintext := []byte(`{"openai":"sk-test-12345"}`)
	sealed, err := seal(plaintext, key)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if strings.Contains(sealed, "sk-test") {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := open(sealed, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("round trip = %q, want %q", got, plaintext)
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	salt, _ := NewSalt()
	sealed, err := seal([]byte("secret"), DeriveKey("right", salt))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := open(sealed, DeriveKey("wrong", salt)); err == nil {
		t.Error("expected error opening with wrong key")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, _ := NewSalt()
	a := DeriveKey("pass", salt)
	b := DeriveKey("pass", salt)
	if string(a) != string(b) {
		t.Error("same passphrase and salt should derive the same key")
	}
	other, _ := NewSalt()
	if string(a) == string(DeriveKey("pass", other)) {
		t.Error("different salts should derive different keys")
	}
}

func TestMaskKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"sk-abcdefgh12345", "sk-...2345"},
		{"short", "****"},
		{"", "****"},
	}
	for _, c := range cases {
		if got := MaskKey(c.in); got != c.want {
			t.Errorf("MaskKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
