package common

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// MakeRandHexString generates size random bytes and returns them hex encoded,
// so the resulting string is twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandURLString returns size random bytes encoded with unpadded base64url.
// The result is safe for cookies, headers and URL query strings.
func MakeRandURLString(size int) (string, error) {
	b := GenerateRandByteArray(size)
	if b == nil {
		return "", ErrTokenGenerationFailed
	}
	defer WipeByteArray(b)
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRandByteArray returns n bytes from crypto/rand or nil if the
// system source fails.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil
	}
	return b
}

// WipeByteArray overwrites b with zeros. Nil slices are ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
