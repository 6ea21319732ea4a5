// crypto.go: the encrypt stage (§4.1 step 3). AES-GCM is the standard
// library's AEAD construction; no third-party library in the retrieval
// pack supersedes it for primitive authenticated encryption (see
// DESIGN.md). Key derivation uses golang.org/x/crypto/hkdf so the AEAD
// key is never the raw configured secret.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const aesKeySize = 32 // AES-256

// DeriveKey derives a deterministic AES-256 key from (secret, salt)
// using HKDF-SHA256, per §4.1: "a key derived deterministically from
// (encryption_key, encryption_salt)".
func DeriveKey(secret, salt string) ([]byte, error) {
	h := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte("stratacache-codec-aead"))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("codec: derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key with a freshly random nonce,
// returning nonce || ciphertext (the ENC envelope of §6's framed
// payload bytes).
func Encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("codec: encrypt: nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt reverses Encrypt, splitting the leading nonce off data before
// opening the AEAD ciphertext.
func Decrypt(data, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("codec: decrypt: ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("codec: aead: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("codec: aead: %w", err)
	}
	return gcm, nil
}
