// Package receiver tracks accounts that want to be notified when they are
// sent tokens, and builds the outbound notification messages.
package receiver

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

var prefixReceiver = []byte("r/") // r/<address> -> code hash

// ErrEmptyCodeHash is returned when registering without a code hash.
var ErrEmptyCodeHash = errors.New("code_hash must not be empty")

// Message is an outbound call to another contract. Delivery is up to the host.
type Message struct {
	Contract types.Address   `json:"contract"`
	CodeHash string          `json:"code_hash"`
	Msg      json.RawMessage `json:"msg"`
}

// Receive is the payload delivered to a recipient of a Send.
type Receive struct {
	Sender  types.Address `json:"sender"`
	TokenID string        `json:"token_id"`
	From    types.Address `json:"from"`
	Amount  types.Amount  `json:"amount"`
	Memo    string        `json:"memo,omitempty"`
	Msg     []byte        `json:"msg,omitempty"`
}

type receiveEnvelope struct {
	Receive Receive `json:"receive"`
}

// NewReceiveMessage builds the notification for recipient.
func NewReceiveMessage(recipient types.Address, codeHash string, r Receive) (Message, error) {
	data, err := json.Marshal(receiveEnvelope{Receive: r})
	if err != nil {
		return Message{}, fmt.Errorf("receive marshal: %w", err)
	}
	return Message{Contract: recipient, CodeHash: codeHash, Msg: data}, nil
}

// Registry stores per-account callback code hashes.
type Registry struct {
	db storage.DB
}

// NewRegistry creates a receiver registry over db.
func NewRegistry(db storage.DB) *Registry {
	return &Registry{db: db}
}

// Register sets addr's callback code hash, replacing any previous one.
func (r *Registry) Register(addr types.Address, codeHash string) error {
	if codeHash == "" {
		return ErrEmptyCodeHash
	}
	if err := r.db.Put(receiverKey(addr), []byte(codeHash)); err != nil {
		return fmt.Errorf("receiver put: %w", err)
	}
	return nil
}

// CodeHash returns addr's registered code hash.
func (r *Registry) CodeHash(addr types.Address) (string, bool, error) {
	data, err := r.db.Get(receiverKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("receiver get: %w", err)
	}
	return string(data), true, nil
}

func receiverKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixReceiver)+types.AddressSize)
	key = append(key, prefixReceiver...)
	return append(key, addr[:]...)
}
