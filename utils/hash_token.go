package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns a hex digest of a token, used as a storage key so raw
// tokens never end up in Redis.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
