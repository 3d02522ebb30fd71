package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// NewConfirmationToken returns a random URL-safe token for email confirmation
// links and the hash to store in its place.
func NewConfirmationToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken returns the hex SHA-256 of token. Only hashes are persisted.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenHashEqual compares the hash of provided with storedHash in constant time.
func TokenHashEqual(provided, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(provided)), []byte(storedHash)) == 1
}
