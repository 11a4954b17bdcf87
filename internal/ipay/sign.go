package ipay

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Sign computes the iPay request signature: the fields concatenated in the
// given order with no delimiter, followed by the secret key, hashed with
// SHA-1 and encoded as lowercase hex. Empty fields stay in place; the field
// order and count is part of the gateway wire contract, not a choice.
func Sign(fields []string, secret string) string {
	var b strings.Builder
	for _, field := range fields {
		b.WriteString(field)
	}
	b.WriteString(secret)
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
