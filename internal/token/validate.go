package token

import (
	"errors"
	"fmt"
)

// Limits on token metadata.
const (
	MaxTokenIDLen = 256
	MaxNameLen    = 255
	MaxSymbolLen  = 255
	MaxDecimals   = 18
)

// Registry errors.
var (
	ErrAlreadyExists   = errors.New("token_id already exists")
	ErrNotFound        = errors.New("token_id does not exist")
	ErrInvalidTokenID  = errors.New("invalid token_id")
	ErrInvalidMetadata = errors.New("invalid token metadata")
)

// Validate checks the static fields of a token description.
func (info *Info) Validate() error {
	if info.TokenID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTokenID)
	}
	if len(info.TokenID) > MaxTokenIDLen {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidTokenID, len(info.TokenID), MaxTokenIDLen)
	}
	if len(info.Name) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidMetadata, MaxNameLen)
	}
	if len(info.Symbol) > MaxSymbolLen {
		return fmt.Errorf("%w: symbol exceeds %d bytes", ErrInvalidMetadata, MaxSymbolLen)
	}
	if info.Decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals %d exceeds %d", ErrInvalidMetadata, info.Decimals, MaxDecimals)
	}
	return nil
}
