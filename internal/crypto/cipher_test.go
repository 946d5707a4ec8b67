package crypto

import "testing"

var testKey = []byte("0123456789abcdef0123456789abcdef") // 32 bytes

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext, err := Encrypt(testKey, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(testKey, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncryptProducesDistinctIVsAcrossCalls(t *testing.T) {
	plaintext := []byte("same plaintext twice")

	first, err := Encrypt(testKey, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	second, err := Encrypt(testKey, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct ciphertexts for distinct random IVs")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	plaintext := []byte("secret payload")
	ciphertext, err := Encrypt(testKey, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wrongKey := []byte("fedcba9876543210fedcba9876543210")
	got, err := Decrypt(wrongKey, ciphertext)
	if err == nil && string(got) == string(plaintext) {
		t.Fatalf("expected decryption under the wrong key to fail or diverge")
	}
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	plaintext := []byte("a payload long enough to span more than one AES block of data")
	ciphertext, err := Encrypt(testKey, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tampered := append([]byte{}, ciphertext...)
	tampered[len(tampered)-1] ^= 0xFF

	if _, err := Decrypt(testKey, tampered); err == nil {
		t.Fatalf("expected a tampered final block to fail padding validation")
	}
}

func TestDecryptTruncatedCiphertextFails(t *testing.T) {
	if _, err := Decrypt(testKey, []byte("short")); err == nil {
		t.Fatalf("expected a ciphertext shorter than the IV to fail")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	data := []byte("round trip me")
	encoded := EncodeBase64(data)
	decoded, err := DecodeBase64(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if string(decoded) != string(data) {
		t.Fatalf("got %q, want %q", decoded, data)
	}
}

func TestBase64URLRoundTrip(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x01, 0x02}
	encoded := EncodeBase64URL(data)
	decoded, err := DecodeBase64URL(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64URL: %v", err)
	}
	if string(decoded) != string(data) {
		t.Fatalf("got %v, want %v", decoded, data)
	}
}

func TestDecodeBase64URLAcceptsPaddedInput(t *testing.T) {
	decoded, err := DecodeBase64URL("TWE=")
	if err != nil {
		t.Fatalf("DecodeBase64URL: %v", err)
	}
	if string(decoded) != "Ma" {
		t.Fatalf("got %q, want %q", decoded, "Ma")
	}
}

func TestDecodeBase64URLAcceptsUnpaddedInput(t *testing.T) {
	decoded, err := DecodeBase64URL("TWE")
	if err != nil {
		t.Fatalf("DecodeBase64URL: %v", err)
	}
	if string(decoded) != "Ma" {
		t.Fatalf("got %q, want %q", decoded, "Ma")
	}
}

func TestDecodeBase64InvalidInputFails(t *testing.T) {
	if _, err := DecodeBase64("not valid base64!!"); err == nil {
		t.Fatalf("expected an error for malformed base64")
	}
}
