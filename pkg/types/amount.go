package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

// AmountBits is the width of a token amount. Balances, allowances and
// transfer amounts never exceed 2^AmountBits - 1.
const AmountBits = 128

// MaxAmount is the largest representable token amount (2^128 - 1).
var MaxAmount = func() Amount {
	var a Amount
	a.v.Lsh(uint256.NewInt(1), AmountBits)
	a.v.SubUint64(&a.v, 1)
	return a
}()

// Amount is a non-negative token quantity. The zero value is 0.
// Arithmetic is checked: results outside [0, MaxAmount] are reported,
// never wrapped.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an Amount holding n.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if v.BitLen() > AmountBits {
		return Amount{}, fmt.Errorf("amount %q exceeds 128 bits", s)
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Intended for
// constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the amount is 0.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// Lt reports whether a < b.
func (a Amount) Lt(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Eq reports whether a == b.
func (a Amount) Eq(b Amount) bool {
	return a.v.Eq(&b.v)
}

// CheckedAdd returns a + b, or false if the sum exceeds MaxAmount.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	var sum Amount
	if _, overflow := sum.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, false
	}
	if sum.v.BitLen() > AmountBits {
		return Amount{}, false
	}
	return sum, true
}

// CheckedSub returns a - b, or false if b > a.
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	var diff Amount
	if _, underflow := diff.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, false
	}
	return diff, true
}

// Bytes returns the minimal big-endian encoding. Zero encodes as empty.
func (a Amount) Bytes() []byte {
	return a.v.Bytes()
}

// AmountFromBytes decodes a big-endian encoding produced by Bytes.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) > AmountBits/8 {
		return Amount{}, fmt.Errorf("amount is %d bytes, max %d", len(b), AmountBits/8)
	}
	var a Amount
	a.v.SetBytes(b)
	return a, nil
}

// Uint64 returns the low 64 bits and whether the amount fits in a uint64.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// String returns the base-10 representation.
func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalJSON encodes the amount as a quoted decimal string so that values
// above 2^53 survive JSON consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalCBOR encodes the amount as a minimal big-endian byte string.
func (a Amount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.v.Bytes())
}

// UnmarshalCBOR decodes a big-endian byte string.
func (a *Amount) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	parsed, err := AmountFromBytes(b)
	if err != nil {
		return fmt.Errorf("cbor %w", err)
	}
	*a = parsed
	return nil
}
