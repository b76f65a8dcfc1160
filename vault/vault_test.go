package vault

import (
	"errors"
	"strings"
	"testing"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	v, err := NewFromBase64(key)
	if err != nil {
		t.Fatalf("NewFromBase64 failed: %v", err)
	}
	return v
}

func TestRoundTrip(t *testing.T) {
	v := newTestVault(t)
	for _, plaintext := range []string{
		"",
		"eyJhbGciOiJFUzI1NiJ9.eyJqdGkiOiJhYmMifQ.c2ln",
		"some\x00binary\xffcontent",
		strings.Repeat("x", 1<<16),
	} {
		sealed, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		opened, err := v.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if opened != plaintext {
			t.Errorf("round trip changed the plaintext")
		}
	}
}

func TestEncryptNotDeterministic(t *testing.T) {
	v := newTestVault(t)
	a, err := v.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := v.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext must not be equal")
	}
}

func TestDecryptFailures(t *testing.T) {
	v := newTestVault(t)
	sealed, err := v.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"not base64", "%%%"},
		{"too short", "c2hvcnQ"},
		{"tampered", sealed[:len(sealed)-2] + "AA"},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				_, err := v.Decrypt(test.ciphertext)
				if err == nil {
					t.Fatal("expected error")
				}
				var decErr DecryptionError
				if !errors.As(err, &decErr) {
					t.Errorf("expected DecryptionError, got %T: %v", err, err)
				}
			},
		)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := newTestVault(t).Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	_, err = newTestVault(t).Decrypt(sealed)
	if err == nil {
		t.Fatal("expected error with a different key")
	}
	var decErr DecryptionError
	if !errors.As(err, &decErr) {
		t.Errorf("expected DecryptionError, got %T: %v", err, err)
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := NewFromBase64("not base64!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestFingerprint(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Fingerprint("abc"); got != want {
		t.Errorf("Fingerprint(abc) = %s, want %s", got, want)
	}
	if got := Fingerprint("abc"); got != Fingerprint("abc") {
		t.Errorf("Fingerprint must be deterministic, got %s", got)
	}
	if len(Fingerprint("")) != 64 {
		t.Error("Fingerprint must be 64 hex characters")
	}
}
