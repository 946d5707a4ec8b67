// Package crypto implements the engine's symmetric cipher and the
// base64/base64url codecs layered on top of it. Go's standard library
// covers both; no third-party AES implementation appears anywhere in
// the retrieval corpus, so this package is the one deliberately
// stdlib-only corner of the module.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"github.com/dispatchengine/engine/internal/domain"
)

// Encrypt pads plaintext with PKCS7, prefixes a freshly generated IV,
// and encrypts with AES-256-CBC under key. key must be 32 bytes.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, domain.NewCipherError("invalid key: " + err.Error())
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())

	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, domain.NewCipherError("iv generation failed: " + err.Error())
	}

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt. An invalid key or a ciphertext that is
// truncated or not block-aligned surfaces as a *domain.CipherError
// rather than a panic. A wrong key or a tampered block is reported only
// when it breaks the PKCS7 padding; otherwise the garbled plaintext is
// returned without an error.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, domain.NewCipherError("invalid key: " + err.Error())
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, domain.NewCipherError("ciphertext shorter than iv")
	}

	iv := ciphertext[:aes.BlockSize]
	body := ciphertext[aes.BlockSize:]
	if len(body) == 0 || len(body)%block.BlockSize() != 0 {
		return nil, domain.NewCipherError("ciphertext is not a multiple of the block size")
	}

	out := make([]byte, len(body))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(out, body)

	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.NewCipherError("cannot unpad empty data")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, domain.NewCipherError("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, domain.NewCipherError("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// EncodeBase64 and the functions below are thin wrappers around the
// standard encodings, kept here so callers never import encoding/base64
// directly and risk mixing the standard and URL alphabets.
func EncodeBase64(data []byte) string { return base64.StdEncoding.EncodeToString(data) }

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, domain.NewParseError("invalid base64: " + err.Error())
	}
	return b, nil
}

func EncodeBase64URL(data []byte) string { return base64.RawURLEncoding.EncodeToString(data) }

// DecodeBase64URL accepts both padded and unpadded base64url input,
// matching the original decoder's tolerance for a trailing "=".
func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, domain.NewParseError("invalid base64url: " + err.Error())
	}
	return b, nil
}
