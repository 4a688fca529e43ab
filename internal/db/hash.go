package db

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateContentHash returns the hex SHA-256 of content. Applied change rows
// store it over the serialized after-state so identical pushes are easy to spot.
func GenerateContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
