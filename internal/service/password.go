package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// PasswordGate verifies a supplied credential against a stored hash.
// The gate is an interface so the digest scheme can be swapped without
// touching the resolver; swapping it requires re-hashing stored
// credentials, which is why the legacy scheme below is still in place.
type PasswordGate interface {
	Hash(plaintext string) string
	Verify(plaintext, storedHash string) bool
}

// SHA256Gate is the legacy scheme: an unsalted single-round SHA-256
// hex digest. Weak against offline brute force if the hash store
// leaks; kept for compatibility with existing stored hashes.
type SHA256Gate struct{}

// Hash returns the hex digest of the plaintext.
func (SHA256Gate) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the plaintext digests to the stored hash.
func (g SHA256Gate) Verify(plaintext, storedHash string) bool {
	digest := g.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}

// Ensure SHA256Gate implements PasswordGate at compile time
var _ PasswordGate = SHA256Gate{}
