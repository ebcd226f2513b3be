package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func setMasterKey(t *testing.T) {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	UnsafeResetForTests()
	t.Setenv("SECRETBOX_MASTER_KEY", base64.StdEncoding.EncodeToString(key))
	t.Cleanup(UnsafeResetForTests)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setMasterKey(t)

	const plain = "123456:ABC-bot-token"
	enc, err := Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(enc, EncPrefix) {
		t.Fatalf("sin prefijo: %q", enc)
	}
	got, err := Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != plain {
		t.Fatalf("round trip: %q != %q", got, plain)
	}
}

func TestDecrypt_TamperDetected(t *testing.T) {
	setMasterKey(t)

	enc, err := Encrypt("secreto")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// Corromper el ciphertext (última porción base64).
	parts := strings.Split(strings.TrimPrefix(enc, EncPrefix), "|")
	ct, _ := base64.StdEncoding.DecodeString(parts[1])
	ct[0] ^= 0xFF
	tampered := EncPrefix + parts[0] + "|" + base64.StdEncoding.EncodeToString(ct)

	if _, err := Decrypt(tampered); err == nil {
		t.Fatalf("esperaba fallo de autenticación GCM")
	}
}

func TestDecrypt_BadFormat(t *testing.T) {
	setMasterKey(t)

	cases := []string{
		"sin-prefijo",
		EncPrefix + "solo-una-parte",
		EncPrefix + "%%%|%%%",
		EncPrefix + base64.StdEncoding.EncodeToString([]byte("corto")) + "|" + base64.StdEncoding.EncodeToString([]byte("x")),
	}
	for _, v := range cases {
		if _, err := Decrypt(v); err == nil {
			t.Errorf("Decrypt(%q): esperaba error", v)
		}
	}
}

func TestEncrypt_SinClaveMaestra(t *testing.T) {
	UnsafeResetForTests()
	t.Setenv("SECRETBOX_MASTER_KEY", "")
	t.Cleanup(UnsafeResetForTests)

	if _, err := Encrypt("x"); err == nil {
		t.Fatalf("esperaba error sin SECRETBOX_MASTER_KEY")
	}
}

func TestMaybeDecrypt_PlainPassthrough(t *testing.T) {
	// Sin clave maestra: los valores en claro pasan intactos.
	UnsafeResetForTests()
	t.Setenv("SECRETBOX_MASTER_KEY", "")
	t.Cleanup(UnsafeResetForTests)

	got, err := MaybeDecrypt("postgres://localhost/db")
	if err != nil {
		t.Fatalf("MaybeDecrypt: %v", err)
	}
	if got != "postgres://localhost/db" {
		t.Fatalf("passthrough: %q", got)
	}
}
