package viewkey

import (
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = types.Address{0xA1}
	bob   = types.Address{0xB0}
)

func TestGate_SetCheck(t *testing.T) {
	db := storage.NewMemory()
	g := NewGate(db)

	require.NoError(t, g.Set(alice, "secret"))

	ok, err := g.Check(alice, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Check(alice, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the hash is stored.
	raw, err := db.Get(keyKey(alice))
	require.NoError(t, err)
	assert.Len(t, raw, HashSize)
	assert.NotContains(t, string(raw), "secret")
}

func TestGate_MissingKeyNeverMatches(t *testing.T) {
	g := NewGate(storage.NewMemory())

	for _, key := range []string{"", "anything", string(make([]byte, HashSize))} {
		ok, err := g.Check(bob, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %q", key)
	}
}

func TestGate_Authenticate(t *testing.T) {
	g := NewGate(storage.NewMemory())
	require.NoError(t, g.Set(bob, "bob-key"))

	addr, ok, err := g.Authenticate([]types.Address{alice, bob}, "bob-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bob, addr)

	_, ok, err = g.Authenticate([]types.Address{alice, bob}, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.Authenticate(nil, "bob-key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGate_AuthenticateSameWorkPerCandidate(t *testing.T) {
	var hashes, compares int
	origHash, origCompare := hashKey, compareHash
	t.Cleanup(func() { hashKey, compareHash = origHash, origCompare })
	hashKey = func(data []byte) types.Hash {
		hashes++
		return origHash(data)
	}
	compareHash = func(x, y []byte) int {
		compares++
		assert.Len(t, x, HashSize)
		assert.Len(t, y, HashSize)
		return origCompare(x, y)
	}

	carol := types.Address{0xC0}
	g := NewGate(storage.NewMemory())
	require.NoError(t, g.Set(bob, "bob-key"))

	tests := []struct {
		name       string
		candidates []types.Address
	}{
		{"no key stored", []types.Address{alice}},
		{"key stored", []types.Address{bob}},
		{"missing then stored", []types.Address{alice, bob}},
		{"stored then missing", []types.Address{bob, alice}},
		{"none stored", []types.Address{alice, carol}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashes, compares = 0, 0
			_, ok, err := g.Authenticate(tt.candidates, "wrong-key")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, len(tt.candidates), hashes, "hashes")
			assert.Equal(t, len(tt.candidates), compares, "compares")
		})
	}
}

func TestGenerate(t *testing.T) {
	seed := state.DeriveSeed([]byte("init"))
	block := state.BlockInfo{Height: 10, Time: 1700000000}

	k1 := Generate(seed, block, alice, []byte("e1"))
	k2 := Generate(seed, block, alice, []byte("e1"))
	k3 := Generate(seed, block, alice, []byte("e2"))
	k4 := Generate(seed, block, bob, []byte("e1"))

	assert.True(t, strings.HasPrefix(k1, KeyPrefix))
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}
