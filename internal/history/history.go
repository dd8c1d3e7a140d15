// Package history keeps the append-only transaction log and the
// per-account index used for paginated history queries.
package history

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/fxamacker/cbor/v2"
)

var (
	prefixTx      = []byte("x/") // x/<id u64> -> Tx CBOR
	prefixAccount = []byte("a/") // a/<address><seq u64> -> id u64
	prefixCount   = []byte("n/") // n/<address> -> count u64
)

// MaxPageSize bounds a single history page.
const MaxPageSize = 1000

// History errors.
var (
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrTxNotFound      = errors.New("transaction not found")
)

// ActionKind tags a history entry.
type ActionKind string

// Action kinds.
const (
	ActionMint     ActionKind = "mint"
	ActionBurn     ActionKind = "burn"
	ActionTransfer ActionKind = "transfer"
)

// Action records who was involved. Unused fields are nil.
type Action struct {
	Kind      ActionKind     `cbor:"1,keyasint" json:"kind"`
	Minter    *types.Address `cbor:"2,keyasint,omitempty" json:"minter,omitempty"`
	Burner    *types.Address `cbor:"3,keyasint,omitempty" json:"burner,omitempty"`
	Owner     *types.Address `cbor:"4,keyasint,omitempty" json:"owner,omitempty"`
	From      *types.Address `cbor:"5,keyasint,omitempty" json:"from,omitempty"`
	Sender    *types.Address `cbor:"6,keyasint,omitempty" json:"sender,omitempty"`
	Recipient *types.Address `cbor:"7,keyasint,omitempty" json:"recipient,omitempty"`
}

// Tx is one history entry.
type Tx struct {
	ID          uint64       `cbor:"1,keyasint" json:"tx_id"`
	BlockHeight uint64       `cbor:"2,keyasint" json:"block_height"`
	BlockTime   uint64       `cbor:"3,keyasint" json:"block_time"`
	TokenID     string       `cbor:"4,keyasint" json:"token_id"`
	Action      Action       `cbor:"5,keyasint" json:"action"`
	Amount      types.Amount `cbor:"6,keyasint" json:"amount"`
	Memo        string       `cbor:"7,keyasint,omitempty" json:"memo,omitempty"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Recorder appends transactions and answers history queries.
type Recorder struct {
	db storage.DB
}

// NewRecorder creates a recorder over db.
func NewRecorder(db storage.DB) *Recorder {
	return &Recorder{db: db}
}

// StoreMint records a mint of amount to recipient.
func (r *Recorder) StoreMint(cfg *state.Config, block state.BlockInfo, tokenID string, minter, recipient types.Address, amount types.Amount, memo string) error {
	return r.append(cfg, block, tokenID, Action{
		Kind:      ActionMint,
		Minter:    &minter,
		Recipient: &recipient,
	}, amount, memo)
}

// StoreBurn records a burn from owner. burner is nil when the owner burned.
func (r *Recorder) StoreBurn(cfg *state.Config, block state.BlockInfo, tokenID string, burner *types.Address, owner types.Address, amount types.Amount, memo string) error {
	return r.append(cfg, block, tokenID, Action{
		Kind:   ActionBurn,
		Burner: burner,
		Owner:  &owner,
	}, amount, memo)
}

// StoreTransfer records a transfer. sender is nil when from moved its own tokens.
func (r *Recorder) StoreTransfer(cfg *state.Config, block state.BlockInfo, tokenID string, from types.Address, sender *types.Address, recipient types.Address, amount types.Amount, memo string) error {
	return r.append(cfg, block, tokenID, Action{
		Kind:      ActionTransfer,
		From:      &from,
		Sender:    sender,
		Recipient: &recipient,
	}, amount, memo)
}

// append assigns the next ID from cfg, writes the entry and indexes it
// under every distinct account it involves.
func (r *Recorder) append(cfg *state.Config, block state.BlockInfo, tokenID string, action Action, amount types.Amount, memo string) error {
	tx := Tx{
		ID:          cfg.TxCount,
		BlockHeight: block.Height,
		BlockTime:   block.Time,
		TokenID:     tokenID,
		Action:      action,
		Amount:      amount,
		Memo:        memo,
	}
	data, err := encMode.Marshal(&tx)
	if err != nil {
		return fmt.Errorf("history marshal: %w", err)
	}
	if err := r.db.Put(txKey(tx.ID), data); err != nil {
		return fmt.Errorf("history put: %w", err)
	}
	for _, addr := range action.accounts() {
		if err := r.index(addr, tx.ID); err != nil {
			return err
		}
	}
	cfg.TxCount++
	return nil
}

func (r *Recorder) index(addr types.Address, id uint64) error {
	n, err := r.Count(addr)
	if err != nil {
		return err
	}
	if err := r.db.Put(accountKey(addr, n), u64(id)); err != nil {
		return fmt.Errorf("history index: %w", err)
	}
	if err := r.db.Put(countKey(addr), u64(n+1)); err != nil {
		return fmt.Errorf("history count: %w", err)
	}
	return nil
}

// Count returns how many entries involve addr.
func (r *Recorder) Count(addr types.Address) (uint64, error) {
	data, err := r.db.Get(countKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("history count: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("history count: bad length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// Get returns the entry with the given ID.
func (r *Recorder) Get(id uint64) (*Tx, error) {
	data, err := r.db.Get(txKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrTxNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history get: %w", err)
	}
	var tx Tx
	if err := cbor.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("history unmarshal: %w", err)
	}
	return &tx, nil
}

// GetTxs returns page number page (zero-indexed) of addr's history, most
// recent first, together with the total number of entries for addr.
func (r *Recorder) GetTxs(addr types.Address, page, pageSize uint32) ([]Tx, uint64, error) {
	if pageSize == 0 || pageSize > MaxPageSize {
		return nil, 0, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidPageSize, pageSize, MaxPageSize)
	}
	total, err := r.Count(addr)
	if err != nil {
		return nil, 0, err
	}

	txs := []Tx{}
	skip := uint64(page) * uint64(pageSize)
	if skip >= total {
		return txs, total, nil
	}
	// Index positions run oldest to newest; walk them backwards.
	end := total - skip
	for i := uint64(0); i < uint64(pageSize) && i < end; i++ {
		seq := end - 1 - i
		data, err := r.db.Get(accountKey(addr, seq))
		if err != nil {
			return nil, 0, fmt.Errorf("history index get: %w", err)
		}
		tx, err := r.Get(binary.BigEndian.Uint64(data))
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	return txs, total, nil
}

// accounts lists the distinct addresses named by the action.
func (a Action) accounts() []types.Address {
	var out []types.Address
	for _, p := range []*types.Address{a.Minter, a.Burner, a.Owner, a.From, a.Sender, a.Recipient} {
		if p == nil {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == *p {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, *p)
		}
	}
	return out
}

func u64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func txKey(id uint64) []byte {
	return append(append([]byte(nil), prefixTx...), u64(id)...)
}

func accountKey(addr types.Address, seq uint64) []byte {
	key := make([]byte, 0, len(prefixAccount)+types.AddressSize+8)
	key = append(key, prefixAccount...)
	key = append(key, addr[:]...)
	return append(key, u64(seq)...)
}

func countKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixCount)+types.AddressSize)
	key = append(key, prefixCount...)
	return append(key, addr[:]...)
}
