package security

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name        string
		key         []byte
		wantErr     bool
		wantEnabled bool
	}{
		{name: "nil key disables", key: nil, wantEnabled: false},
		{name: "empty key disables", key: []byte{}, wantEnabled: false},
		{name: "32 byte key", key: bytes.Repeat([]byte{1}, 32), wantEnabled: true},
		{name: "short key", key: bytes.Repeat([]byte{1}, 16), wantErr: true},
		{name: "long key", key: bytes.Repeat([]byte{1}, 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptor(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && enc.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", enc.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestEncryptor_SealOpen(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	enc, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	plaintext := []byte(`{"id":"s1","user":{"id":"u1","role":"admin"}}`)
	aad := []byte("session:s1")

	sealed, err := enc.Seal(plaintext, aad)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Contains(sealed, []byte("admin")) {
		t.Error("sealed value contains plaintext")
	}

	again, _ := enc.Seal(plaintext, aad)
	if bytes.Equal(sealed, again) {
		t.Error("two seals of the same plaintext are identical; nonce not random")
	}

	opened, err := enc.Open(sealed, aad)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestEncryptor_Open_Failures(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)
	sealed, _ := enc.Seal([]byte("payload"), []byte("session:a"))

	otherKey, _ := GenerateKey()
	other, _ := NewEncryptor(otherKey)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name   string
		enc    *Encryptor
		sealed []byte
		aad    []byte
	}{
		{name: "wrong record key", enc: enc, sealed: sealed, aad: []byte("session:b")},
		{name: "wrong encryption key", enc: other, sealed: sealed, aad: []byte("session:a")},
		{name: "tampered", enc: enc, sealed: tampered, aad: []byte("session:a")},
		{name: "too short", enc: enc, sealed: []byte{1, 2, 3}, aad: []byte("session:a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.enc.Open(tt.sealed, tt.aad); err == nil {
				t.Error("Open() expected error")
			}
		})
	}

	if _, err := enc.Open([]byte{1}, nil); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Open(short) error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestEncryptor_Disabled(t *testing.T) {
	enc, _ := NewEncryptor(nil)
	in := []byte("plain")

	sealed, err := enc.Seal(in, nil)
	if err != nil || !bytes.Equal(sealed, in) {
		t.Errorf("disabled Seal() = %q, %v; want passthrough", sealed, err)
	}
	opened, err := enc.Open(in, nil)
	if err != nil || !bytes.Equal(opened, in) {
		t.Errorf("disabled Open() = %q, %v; want passthrough", opened, err)
	}

	var nilEnc *Encryptor
	if nilEnc.IsEnabled() {
		t.Error("nil Encryptor reports enabled")
	}
}

func TestKeyBase64(t *testing.T) {
	key, _ := GenerateKey()

	decoded, err := KeyFromBase64(KeyToBase64(key))
	if err != nil {
		t.Fatalf("KeyFromBase64() error = %v", err)
	}
	if !bytes.Equal(decoded, key) {
		t.Error("key did not survive base64 encoding")
	}

	if k, err := KeyFromBase64(""); err != nil || k != nil {
		t.Errorf("KeyFromBase64(\"\") = %v, %v; want nil, nil", k, err)
	}
	if _, err := KeyFromBase64("not base64!"); err == nil {
		t.Error("KeyFromBase64(invalid) expected error")
	}
	if _, err := KeyFromBase64(KeyToBase64([]byte("short"))); err == nil {
		t.Error("KeyFromBase64(short) expected error")
	}
}
