// Package permission stores what an owner lets a delegate do with one of
// the owner's tokens, including a consumable transfer allowance.
package permission

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

var prefixPermission = []byte("p/") // p/<owner><len u16><token_id><delegate> -> Permission JSON

// Permission errors.
var (
	ErrNotAuthorized         = errors.New("not authorized")
	ErrInsufficientAllowance = errors.New("insufficient transfer allowance")
)

// InsufficientAllowanceError reports the allowance left when a transfer
// asks for more than the delegate may move.
type InsufficientAllowanceError struct {
	Remaining types.Amount
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInsufficientAllowance, e.Remaining)
}

func (e *InsufficientAllowanceError) Unwrap() error {
	return ErrInsufficientAllowance
}

// Permission is the record for one (owner, token, delegate) triple.
// The zero value means no rights.
type Permission struct {
	ViewOwner           bool         `json:"view_owner"`
	ViewPrivateMetadata bool         `json:"view_private_metadata"`
	TransferAllowance   types.Amount `json:"transfer_allowance"`
}

// GrantOptions selects which fields a grant changes. Nil fields keep
// their current value.
type GrantOptions struct {
	ViewOwner           *bool         `json:"view_owner,omitempty"`
	ViewPrivateMetadata *bool         `json:"view_private_metadata,omitempty"`
	TransferAllowance   *types.Amount `json:"transfer_allowance,omitempty"`
}

// Engine reads and writes permission records.
type Engine struct {
	db storage.DB
}

// NewEngine creates a permission engine over db.
func NewEngine(db storage.DB) *Engine {
	return &Engine{db: db}
}

// Grant applies opts to the record for (owner, tokenID, delegate) and
// returns the result. The token ID is not checked for existence.
func (e *Engine) Grant(owner, delegate types.Address, tokenID string, opts GrantOptions) (Permission, error) {
	perm, _, err := e.load(owner, delegate, tokenID)
	if err != nil {
		return Permission{}, err
	}
	if opts.ViewOwner != nil {
		perm.ViewOwner = *opts.ViewOwner
	}
	if opts.ViewPrivateMetadata != nil {
		perm.ViewPrivateMetadata = *opts.ViewPrivateMetadata
	}
	if opts.TransferAllowance != nil {
		perm.TransferAllowance = *opts.TransferAllowance
	}
	if err := e.save(owner, delegate, tokenID, perm); err != nil {
		return Permission{}, err
	}
	return perm, nil
}

// Get returns the record for (owner, tokenID, delegate), or the zero
// Permission when none was granted.
func (e *Engine) Get(owner, delegate types.Address, tokenID string) (Permission, error) {
	perm, _, err := e.load(owner, delegate, tokenID)
	return perm, err
}

// CheckAndConsume authorizes delegate to move amount of owner's tokenID
// and deducts it from the allowance. An owner acting on its own balance is
// always authorized and consumes nothing.
func (e *Engine) CheckAndConsume(owner, delegate types.Address, tokenID string, amount types.Amount) error {
	if owner == delegate {
		return nil
	}
	perm, found, err := e.load(owner, delegate, tokenID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotAuthorized
	}
	remaining, ok := perm.TransferAllowance.CheckedSub(amount)
	if !ok {
		return &InsufficientAllowanceError{Remaining: perm.TransferAllowance}
	}
	perm.TransferAllowance = remaining
	return e.save(owner, delegate, tokenID, perm)
}

func (e *Engine) load(owner, delegate types.Address, tokenID string) (Permission, bool, error) {
	data, err := e.db.Get(permissionKey(owner, delegate, tokenID))
	if errors.Is(err, storage.ErrNotFound) {
		return Permission{}, false, nil
	}
	if err != nil {
		return Permission{}, false, fmt.Errorf("permission get: %w", err)
	}
	var perm Permission
	if err := json.Unmarshal(data, &perm); err != nil {
		return Permission{}, false, fmt.Errorf("permission unmarshal: %w", err)
	}
	return perm, true, nil
}

func (e *Engine) save(owner, delegate types.Address, tokenID string, perm Permission) error {
	data, err := json.Marshal(perm)
	if err != nil {
		return fmt.Errorf("permission marshal: %w", err)
	}
	if err := e.db.Put(permissionKey(owner, delegate, tokenID), data); err != nil {
		return fmt.Errorf("permission put: %w", err)
	}
	return nil
}

func permissionKey(owner, delegate types.Address, tokenID string) []byte {
	n := len(prefixPermission)
	key := make([]byte, n+types.AddressSize+2+len(tokenID)+types.AddressSize)
	copy(key, prefixPermission)
	copy(key[n:], owner[:])
	n += types.AddressSize
	binary.BigEndian.PutUint16(key[n:], uint16(len(tokenID)))
	n += 2
	copy(key[n:], tokenID)
	n += len(tokenID)
	copy(key[n:], delegate[:])
	return key
}
