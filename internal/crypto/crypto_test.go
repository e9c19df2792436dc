package crypto

import (
	"strings"
	"testing"
)

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "valid 32 byte key", key: strings.Repeat("a", 32)},
		{name: "empty key", key: "", wantErr: ErrMissingKey},
		{name: "short key", key: "too-short", wantErr: ErrInvalidKey},
		{name: "long key", key: strings.Repeat("a", 48), wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryptor(tt.key)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	plaintext := "EAAGm0PX4ZCpsBO7token"
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	got, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if got != plaintext {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	if _, err := enc.Decrypt("AA"); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
	if _, err := enc.Decrypt("not base64 %%%"); err == nil {
		t.Error("expected error for invalid encoding")
	}
}
