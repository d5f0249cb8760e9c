// Package cookiecrypt encrypts session identity into cookie values with a
// server-side secret.
package cookiecrypt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the exact secret length, in bytes, cookie encryption requires.
const KeySize = 32

const nonceSize = 24

var (
	// ErrKeySize is returned for a secret that is not KeySize bytes.
	ErrKeySize = fmt.Errorf("cookie secret must be exactly %d bytes", KeySize)

	// ErrDecrypt is returned when a cookie value fails authentication.
	ErrDecrypt = errors.New("cookie value cannot be decrypted with this secret")
)

// ValidKey reports whether key has the required length.
func ValidKey(key []byte) bool {
	return len(key) == KeySize
}

// GenerateKey reads KeySize bytes from rand, which must be a
// cryptographically secure source such as crypto/rand.Reader.
func GenerateKey(rand io.Reader) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand, key); err != nil {
		return nil, fmt.Errorf("read random key: %w", err)
	}
	return key, nil
}

func toArray(key []byte) (*[KeySize]byte, error) {
	if !ValidKey(key) {
		return nil, ErrKeySize
	}
	var k [KeySize]byte
	copy(k[:], key)
	return &k, nil
}

// Seal encrypts plaintext under key with a fresh nonce from rand and returns
// the base64url cookie value.
func Seal(key, plaintext []byte, rand io.Reader) (string, error) {
	k, err := toArray(key)
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], plaintext, &nonce, k)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a cookie value produced by Seal.
func Open(key []byte, value string) ([]byte, error) {
	k, err := toArray(key)
	if err != nil {
		return nil, err
	}

	box, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, k)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// Verify checks that key can round-trip a probe value.
func Verify(key []byte, rand io.Reader) error {
	probe := []byte("dbadvisor-verify")
	sealed, err := Seal(key, probe, rand)
	if err != nil {
		return err
	}
	got, err := Open(key, sealed)
	if err != nil {
		return err
	}
	if string(got) != string(probe) {
		return ErrDecrypt
	}
	return nil
}
