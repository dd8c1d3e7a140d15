package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
)

var prefixToken = []byte("t/") // t/<token_id> -> Info JSON

// Registry persists token descriptions.
type Registry struct {
	db storage.DB
}

// NewRegistry creates a token registry over db.
func NewRegistry(db storage.DB) *Registry {
	return &Registry{db: db}
}

// Create stores a new token. It fails if the ID is already taken.
func (r *Registry) Create(info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}
	exists, err := r.Has(info.TokenID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, info.TokenID)
	}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	if err := r.db.Put(tokenKey(info.TokenID), data); err != nil {
		return fmt.Errorf("token put: %w", err)
	}
	return nil
}

// Get retrieves a token. Returns ErrNotFound when the ID is unknown.
func (r *Registry) Get(id string) (*Info, error) {
	data, err := r.db.Get(tokenKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	return &info, nil
}

// Has reports whether a token exists.
func (r *Registry) Has(id string) (bool, error) {
	ok, err := r.db.Has(tokenKey(id))
	if err != nil {
		return false, fmt.Errorf("token has: %w", err)
	}
	return ok, nil
}

// ForEach iterates over all tokens in ID order.
// Return a non-nil error from fn to stop iteration early.
func (r *Registry) ForEach(fn func(*Info) error) error {
	return r.db.ForEach(prefixToken, func(_, value []byte) error {
		var info Info
		if err := json.Unmarshal(value, &info); err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(&info)
	})
}

// List returns all tokens.
func (r *Registry) List() ([]Info, error) {
	infos := []Info{}
	err := r.ForEach(func(info *Info) error {
		infos = append(infos, *info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func tokenKey(id string) []byte {
	key := make([]byte, len(prefixToken)+len(id))
	copy(key, prefixToken)
	copy(key[len(prefixToken):], id)
	return key
}
