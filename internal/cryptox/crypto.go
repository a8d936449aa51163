// Package cryptox contains the one-way primitives used by the server:
// password hashing (argon2id in PHC format, with bcrypt accepted for
// imported legacy hashes) and SHA-256 digests for opaque token lookup.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret is returned when hashing an empty value.
var ErrEmptySecret = errors.New("empty secret")

// Params are argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultParams follows the OWASP baseline for argon2id.
var DefaultParams = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, SaltLen: 16, KeyLen: 32}

// Hasher hashes and verifies secrets. The zero value is not usable, build one
// with NewHasher.
type Hasher struct {
	p Params
}

func NewHasher(p Params) *Hasher {
	if p.SaltLen == 0 {
		p.SaltLen = DefaultParams.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return &Hasher{p: p}
}

// Hash returns a PHC string:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptySecret
	}
	salt := make([]byte, h.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.p.Time, h.p.Memory, h.p.Parallelism, h.p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.p.Memory, h.p.Time, h.p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. Both argon2id PHC strings and
// bcrypt hashes ($2a$, $2b$, $2y$) are understood; anything else never matches.
func (h *Hasher) Verify(plain, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(plain, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	default:
		return false
	}
}

func verifyArgon2id(plain, encoded string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	stored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(stored) == 0 {
		return false
	}

	key := argon2.IDKey([]byte(plain), salt, t, m, p, uint32(len(stored)))
	return subtle.ConstantTimeCompare(key, stored) == 1
}

// Digest returns the unpadded base64url SHA-256 of s. Opaque refresh secrets
// are stored and looked up by this value.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
