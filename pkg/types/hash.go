// Package types defines the primitive types shared across the ledger.
package types

import "encoding/hex"

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 256-bit BLAKE3 digest.
type Hash [HashSize]byte

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
