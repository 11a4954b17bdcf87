package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex returns the lowercase hex SHA-256 digest of input. Used to key
// replay-guard and idempotency entries without storing raw payloads.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
