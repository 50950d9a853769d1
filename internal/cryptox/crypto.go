// Package cryptox holds the password-derivation primitives used by the local
// identity provider: argon2id key derivation and a SHA-256 verifier, so the
// password itself is never stored.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes used when creating a new credential.
const SaltSize = 32

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value stored in place of the password.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckPassword derives a verifier candidate from password and salt and
// compares it with the stored verifier in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	candidate := MakeVerifier(DeriveKey(password, salt))
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}
