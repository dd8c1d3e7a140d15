// Package state holds the ledger-wide configuration record and the block
// context each request executes under.
package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"golang.org/x/crypto/argon2"
)

var (
	keyConfig   = []byte("cfg")
	keyBlock    = []byte("blk")
	prefixNonce = []byte("s/") // s/<address> -> next nonce u64
)

var (
	// ErrNotInitialized is returned when no configuration has been saved yet.
	ErrNotInitialized = errors.New("ledger not initialized")
	// ErrBadNonce is returned when a signed request does not carry the
	// sender's next nonce.
	ErrBadNonce = errors.New("invalid nonce")
)

// Argon2id parameters used to stretch instantiation entropy into the seed.
const (
	seedTime    = 1
	seedMemory  = 8 * 1024
	seedThreads = 4
	SeedSize    = 32
)

var seedSalt = []byte("mtl/prng-seed/v1")

// Config is the ledger-wide record. It is loaded at the start of every
// mutating request and saved at its end, inside the same atomic unit.
type Config struct {
	Admin    *types.Address  `json:"admin,omitempty"`
	Minters  []types.Address `json:"minters"`
	TxCount  uint64          `json:"tx_cnt"`
	PRNGSeed []byte          `json:"prng_seed"`
}

// BlockInfo is the chain context of the request being executed.
type BlockInfo struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

// IsMinter reports whether addr may mint.
func (c *Config) IsMinter(addr types.Address) bool {
	for _, m := range c.Minters {
		if m == addr {
			return true
		}
	}
	return false
}

// IsAdmin reports whether addr is the admin. A config without an admin has
// no admin rights to grant.
func (c *Config) IsAdmin(addr types.Address) bool {
	return c.Admin != nil && *c.Admin == addr
}

// AddMinters appends addresses that are not already minters.
func (c *Config) AddMinters(addrs []types.Address) {
	for _, a := range addrs {
		if !c.IsMinter(a) {
			c.Minters = append(c.Minters, a)
		}
	}
}

// RemoveMinters drops the given addresses from the minter set.
func (c *Config) RemoveMinters(addrs []types.Address) {
	kept := c.Minters[:0]
	for _, m := range c.Minters {
		drop := false
		for _, a := range addrs {
			if m == a {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, m)
		}
	}
	c.Minters = kept
}

// DeriveSeed stretches instantiation entropy into the PRNG seed.
func DeriveSeed(entropy []byte) []byte {
	return argon2.IDKey(entropy, seedSalt, seedTime, seedMemory, seedThreads, SeedSize)
}

// LoadConfig reads the config record.
func LoadConfig(db storage.DB) (*Config, error) {
	data, err := db.Get(keyConfig)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("config get: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the config record.
func SaveConfig(db storage.DB, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	if err := db.Put(keyConfig, data); err != nil {
		return fmt.Errorf("config put: %w", err)
	}
	return nil
}

// HasConfig reports whether the ledger has been initialized.
func HasConfig(db storage.DB) (bool, error) {
	return db.Has(keyConfig)
}

// LoadBlock returns the block info of the last executed request, or the
// zero value before the first one.
func LoadBlock(db storage.DB) (BlockInfo, error) {
	data, err := db.Get(keyBlock)
	if errors.Is(err, storage.ErrNotFound) {
		return BlockInfo{}, nil
	}
	if err != nil {
		return BlockInfo{}, fmt.Errorf("block get: %w", err)
	}
	var b BlockInfo
	if err := json.Unmarshal(data, &b); err != nil {
		return BlockInfo{}, fmt.Errorf("block unmarshal: %w", err)
	}
	return b, nil
}

// SaveBlock persists the block info of the request being executed.
func SaveBlock(db storage.DB, b BlockInfo) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}
	if err := db.Put(keyBlock, data); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	return nil
}

// nonces is the per-sender request counter namespace.
func nonces(db storage.DB) *storage.PrefixDB {
	return storage.NewPrefixDB(db, prefixNonce)
}

// LoadNonce returns the nonce addr's next signed request must carry.
func LoadNonce(db storage.DB, addr types.Address) (uint64, error) {
	data, err := nonces(db).Get(addr[:])
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("nonce get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("nonce get: corrupt record of %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// UseNonce checks that nonce is addr's next nonce and advances it.
func UseNonce(db storage.DB, addr types.Address, nonce uint64) error {
	next, err := LoadNonce(db, addr)
	if err != nil {
		return err
	}
	if nonce != next {
		return fmt.Errorf("%w: expected %d, got %d", ErrBadNonce, next, nonce)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next+1)
	if err := nonces(db).Put(addr[:], buf[:]); err != nil {
		return fmt.Errorf("nonce put: %w", err)
	}
	return nil
}
