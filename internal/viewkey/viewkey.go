// Package viewkey authenticates read access to private ledger data.
//
// Only the BLAKE3 hash of a viewing key is stored. Checks always hash the
// presented key and compare in constant time, and an account without a key
// is compared against a fixed zero hash, so a wrong key and a missing key
// cost the same and produce the same answer.
package viewkey

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

var prefixKey = []byte("k/") // k/<address> -> BLAKE3(key)

// KeyPrefix starts every generated viewing key.
const KeyPrefix = "api_key_"

// HashSize is the size of a stored key hash.
const HashSize = types.HashSize

// WrongKeyMessage is the one answer for both a wrong and a missing key.
const WrongKeyMessage = "Wrong viewing key for this address or viewing key not set"

// Swapped in tests to count the work done per candidate.
var (
	hashKey     = crypto.Hash
	compareHash = subtle.ConstantTimeCompare
)

// Gate stores key hashes and checks presented keys.
type Gate struct {
	db storage.DB
}

// NewGate creates a gate over db.
func NewGate(db storage.DB) *Gate {
	return &Gate{db: db}
}

// Set replaces addr's viewing key.
func (g *Gate) Set(addr types.Address, key string) error {
	h := hashKey([]byte(key))
	if err := g.db.Put(keyKey(addr), h[:]); err != nil {
		return fmt.Errorf("viewkey put: %w", err)
	}
	return nil
}

// Check reports whether key is addr's viewing key.
func (g *Gate) Check(addr types.Address, key string) (bool, error) {
	var stored [HashSize]byte
	data, err := g.db.Get(keyKey(addr))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Compare against the zero hash so absence takes the same path.
	case err != nil:
		return false, fmt.Errorf("viewkey get: %w", err)
	default:
		copy(stored[:], data)
	}
	presented := hashKey([]byte(key))
	return compareHash(presented[:], stored[:]) == 1, nil
}

// Authenticate returns the first candidate whose viewing key is key.
func (g *Gate) Authenticate(candidates []types.Address, key string) (types.Address, bool, error) {
	for _, addr := range candidates {
		ok, err := g.Check(addr, key)
		if err != nil {
			return types.Address{}, false, err
		}
		if ok {
			return addr, true, nil
		}
	}
	return types.Address{}, false, nil
}

// Generate derives a fresh viewing key from the ledger seed, the block
// context, the requesting account and caller-supplied entropy.
func Generate(seed []byte, block state.BlockInfo, sender types.Address, entropy []byte) string {
	var height, ts [8]byte
	binary.BigEndian.PutUint64(height[:], block.Height)
	binary.BigEndian.PutUint64(ts[:], block.Time)
	h := crypto.HashParts(seed, height[:], ts[:], sender[:], entropy)
	return KeyPrefix + base64.StdEncoding.EncodeToString(h[:])
}

func keyKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixKey)+types.AddressSize)
	key = append(key, prefixKey...)
	return append(key, addr[:]...)
}
