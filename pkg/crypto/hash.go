// Package crypto provides the hashing and signature primitives of the ledger.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes a sequence of byte strings. Each part is prefixed with
// its 4-byte big-endian length so that ("ab","c") and ("a","bc") differ.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	var lenBuf [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// MessageDigest returns the 32-byte digest signed for a request: the
// domain (an RPC method name) bound to the exact payload bytes.
func MessageDigest(domain string, payload []byte) types.Hash {
	return HashParts([]byte(domain), payload)
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
