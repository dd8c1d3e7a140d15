package state

import (
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SaveLoad(t *testing.T) {
	db := storage.NewMemory()

	_, err := LoadConfig(db)
	require.ErrorIs(t, err, ErrNotInitialized)

	admin := types.Address{0xAD}
	cfg := &Config{
		Admin:    &admin,
		Minters:  []types.Address{{0x01}, {0x02}},
		TxCount:  7,
		PRNGSeed: DeriveSeed([]byte("entropy")),
	}
	require.NoError(t, SaveConfig(db, cfg))

	ok, err := HasConfig(db)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := LoadConfig(db)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfig_Minters(t *testing.T) {
	a, b, c := types.Address{0x0A}, types.Address{0x0B}, types.Address{0x0C}
	cfg := &Config{Minters: []types.Address{a}}

	cfg.AddMinters([]types.Address{a, b, c})
	assert.Equal(t, []types.Address{a, b, c}, cfg.Minters)

	cfg.RemoveMinters([]types.Address{b})
	assert.Equal(t, []types.Address{a, c}, cfg.Minters)
	assert.False(t, cfg.IsMinter(b))
	assert.True(t, cfg.IsMinter(c))
}

func TestConfig_IsAdmin(t *testing.T) {
	admin := types.Address{0x01}
	assert.False(t, (&Config{}).IsAdmin(admin))
	assert.True(t, (&Config{Admin: &admin}).IsAdmin(admin))
	assert.False(t, (&Config{Admin: &admin}).IsAdmin(types.Address{0x02}))
}

func TestDeriveSeed(t *testing.T) {
	s1 := DeriveSeed([]byte("entropy"))
	s2 := DeriveSeed([]byte("entropy"))
	s3 := DeriveSeed([]byte("other"))

	assert.Len(t, s1, SeedSize)
	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
}

func TestBlock_SaveLoad(t *testing.T) {
	db := storage.NewMemory()

	b, err := LoadBlock(db)
	require.NoError(t, err)
	assert.Equal(t, BlockInfo{}, b)

	require.NoError(t, SaveBlock(db, BlockInfo{Height: 12, Time: 1700000000}))
	b, err = LoadBlock(db)
	require.NoError(t, err)
	assert.Equal(t, BlockInfo{Height: 12, Time: 1700000000}, b)
}

func TestNonce_UseAdvances(t *testing.T) {
	db := storage.NewMemory()
	alice, bob := types.Address{0xA1}, types.Address{0xB0}

	n, err := LoadNonce(db, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	require.NoError(t, UseNonce(db, alice, 0))
	require.NoError(t, UseNonce(db, alice, 1))

	// A used nonce and a future nonce are both rejected without effect.
	require.ErrorIs(t, UseNonce(db, alice, 1), ErrBadNonce)
	require.ErrorIs(t, UseNonce(db, alice, 5), ErrBadNonce)

	n, err = LoadNonce(db, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	// Counters are per sender.
	n, err = LoadNonce(db, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	ok, err := db.Has(append([]byte("s/"), alice[:]...))
	require.NoError(t, err)
	assert.True(t, ok)
}
