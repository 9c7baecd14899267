// Package identity derives opaque dedup tokens from feed-provided article IDs.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Token returns the keyed one-way hash of a raw article identifier. The raw
// identifier never appears in persisted output; only the token does. Equal
// (rawID, secret) pairs always produce the same token, and tokens produced
// under different secrets are not correlatable.
//
// Callers must not invoke Token with an empty rawID or secret; articles
// without an identifier (or runs without a configured secret) bypass
// deduplication entirely.
func Token(rawID, secret string) string {
	sum := sha256.Sum256([]byte(secret + ":" + rawID))
	return hex.EncodeToString(sum[:])
}
