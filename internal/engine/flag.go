package engine

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashFlag derives the stored form of a flag. Plaintext flags never reach the
// database.
func HashFlag(flag string) string {
	sum := sha256.Sum256([]byte(flag))
	return hex.EncodeToString(sum[:])
}

// VerifyFlag compares a guess against a stored hash in constant time, so the
// comparison itself leaks nothing about the flag. Malformed input simply
// fails to match.
func VerifyFlag(guess, storedHash string) bool {
	guessHash := HashFlag(guess)
	return subtle.ConstantTimeCompare([]byte(guessHash), []byte(storedHash)) == 1
}
