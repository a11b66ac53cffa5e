// Package checksum fingerprints documents for ETags and change events.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Of returns the digest of v's JSON encoding. Values that cannot be encoded
// hash to the digest of nothing.
func Of(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return Sum(nil)
	}
	return Sum(data)
}
