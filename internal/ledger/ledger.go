// Package ledger owns per-(token, account) balances. It is the only code
// that writes balance records.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

var prefixBalance = []byte("b/") // b/<len(token_id) u16><token_id><address> -> amount

// Ledger errors.
var (
	ErrUniqueReMint      = errors.New("unique token cannot be minted after creation")
	ErrUniqueAmount      = errors.New("unique token amount must be 1")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSupplyOverflow    = errors.New("recipient balance would exceed maximum amount")
	ErrEmptyDelta        = errors.New("balance change has neither source nor destination")
)

// Ledger reads and mutates balances.
type Ledger struct {
	db storage.DB
}

// New creates a ledger over db.
func New(db storage.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the amount held by addr. An absent record is zero.
func (l *Ledger) Balance(tokenID string, addr types.Address) (types.Amount, error) {
	data, err := l.db.Get(balanceKey(tokenID, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("ledger get: %w", err)
	}
	amt, err := types.AmountFromBytes(data)
	if err != nil {
		return types.Amount{}, fmt.Errorf("ledger decode: %w", err)
	}
	return amt, nil
}

// ApplyDelta moves amount of tokenID. A nil removeFrom mints, a nil addTo
// burns, both set transfers. New balances are computed before anything is
// written, so a failed credit never leaves a debit behind.
func (l *Ledger) ApplyDelta(tokenID string, removeFrom, addTo *types.Address, amount types.Amount, info *token.Info) error {
	if removeFrom == nil && addTo == nil {
		return ErrEmptyDelta
	}
	if info.IsUnique {
		if removeFrom == nil {
			return fmt.Errorf("%w: %s", ErrUniqueReMint, tokenID)
		}
		if !amount.Eq(types.NewAmount(1)) {
			return fmt.Errorf("%w: %s got %s", ErrUniqueAmount, tokenID, amount)
		}
	}

	var (
		fromBal types.Amount
		toBal   types.Amount
		err     error
	)
	if removeFrom != nil {
		cur, err := l.Balance(tokenID, *removeFrom)
		if err != nil {
			return err
		}
		var ok bool
		if fromBal, ok = cur.CheckedSub(amount); !ok {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, removeFrom, cur, amount)
		}
	}
	if addTo != nil {
		cur := fromBal
		if removeFrom == nil || *removeFrom != *addTo {
			if cur, err = l.Balance(tokenID, *addTo); err != nil {
				return err
			}
		}
		var ok bool
		if toBal, ok = cur.CheckedAdd(amount); !ok {
			return fmt.Errorf("%w: %s", ErrSupplyOverflow, addTo)
		}
	}

	if removeFrom != nil {
		if err := l.setBalance(tokenID, *removeFrom, fromBal); err != nil {
			return err
		}
	}
	if addTo != nil {
		if err := l.setBalance(tokenID, *addTo, toBal); err != nil {
			return err
		}
	}
	return nil
}

// MintInitial credits a balance as part of token creation. It is the only
// path through which a unique token gets its single unit.
func (l *Ledger) MintInitial(tokenID string, to types.Address, amount types.Amount) error {
	cur, err := l.Balance(tokenID, to)
	if err != nil {
		return err
	}
	next, ok := cur.CheckedAdd(amount)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSupplyOverflow, to)
	}
	return l.setBalance(tokenID, to, next)
}

// Holding is one non-zero balance.
type Holding struct {
	Address types.Address `json:"address"`
	Amount  types.Amount  `json:"amount"`
}

// Holders returns every non-zero balance of tokenID in address order.
func (l *Ledger) Holders(tokenID string) ([]Holding, error) {
	prefix := tokenPrefix(tokenID)
	holders := []Holding{}
	err := l.db.ForEach(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		amt, err := types.AmountFromBytes(value)
		if err != nil {
			return fmt.Errorf("ledger decode: %w", err)
		}
		var h Holding
		copy(h.Address[:], key[len(prefix):])
		h.Amount = amt
		holders = append(holders, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return holders, nil
}

// Supply sums every balance of tokenID.
func (l *Ledger) Supply(tokenID string) (types.Amount, error) {
	holders, err := l.Holders(tokenID)
	if err != nil {
		return types.Amount{}, err
	}
	var total types.Amount
	for _, h := range holders {
		var ok bool
		if total, ok = total.CheckedAdd(h.Amount); !ok {
			return types.Amount{}, fmt.Errorf("%w: supply of %s", ErrSupplyOverflow, tokenID)
		}
	}
	return total, nil
}

// setBalance writes amt, deleting the record when it is zero.
func (l *Ledger) setBalance(tokenID string, addr types.Address, amt types.Amount) error {
	key := balanceKey(tokenID, addr)
	if amt.IsZero() {
		if err := l.db.Delete(key); err != nil {
			return fmt.Errorf("ledger delete: %w", err)
		}
		return nil
	}
	if err := l.db.Put(key, amt.Bytes()); err != nil {
		return fmt.Errorf("ledger put: %w", err)
	}
	return nil
}

func tokenPrefix(tokenID string) []byte {
	key := make([]byte, len(prefixBalance)+2+len(tokenID))
	copy(key, prefixBalance)
	binary.BigEndian.PutUint16(key[len(prefixBalance):], uint16(len(tokenID)))
	copy(key[len(prefixBalance)+2:], tokenID)
	return key
}

func balanceKey(tokenID string, addr types.Address) []byte {
	prefix := tokenPrefix(tokenID)
	key := make([]byte, len(prefix)+types.AddressSize)
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}
