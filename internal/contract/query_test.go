package contract

import (
	"encoding/json"
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/internal/history"
	"github.com/Klingon-tech/klingnet-mtl/internal/viewkey"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) setKey(addr types.Address, key string) {
	f.t.Helper()
	_, err := f.exec(addr, ExecuteMsg{SetViewingKey: &SetViewingKey{Key: key}})
	require.NoError(f.t, err)
}

func TestQuery_ContractInfo(t *testing.T) {
	f := newCoinFixture(t)

	answer, err := f.c.Query(QueryMsg{ContractInfo: &ContractInfoQuery{}})
	require.NoError(t, err)
	require.NotNil(t, answer.ContractInfo)
	assert.Equal(t, &admin, answer.ContractInfo.Admin)
	assert.Equal(t, []types.Address{minter}, answer.ContractInfo.Minters)
	assert.EqualValues(t, 1, answer.ContractInfo.TxCount)
}

func TestQuery_Balance(t *testing.T) {
	f := newCoinFixture(t)
	f.setKey(alice, "alice-key")

	answer, err := f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: alice, Key: "alice-key", TokenID: "coin"}})
	require.NoError(t, err)
	require.NotNil(t, answer.Balance)
	assert.Equal(t, "100", answer.Balance.Amount.String())

	answer, err = f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: alice, Key: "alice-key", TokenID: "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, "0", answer.Balance.Amount.String())
}

func TestQuery_WrongAndMissingKeyLookTheSame(t *testing.T) {
	f := newCoinFixture(t)
	f.setKey(alice, "alice-key")

	wrong, err := f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: alice, Key: "guess", TokenID: "coin"}})
	require.NoError(t, err)
	missing, err := f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: bob, Key: "guess", TokenID: "coin"}})
	require.NoError(t, err)

	require.NotNil(t, wrong.ViewingKeyError)
	assert.Nil(t, wrong.Balance)
	assert.Equal(t, viewkey.WrongKeyMessage, wrong.ViewingKeyError.Msg)

	wrongJSON, err := json.Marshal(wrong)
	require.NoError(t, err)
	missingJSON, err := json.Marshal(missing)
	require.NoError(t, err)
	assert.Equal(t, string(wrongJSON), string(missingJSON))

	// An empty key does not unlock an account without one.
	empty, err := f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: bob, TokenID: "coin"}})
	require.NoError(t, err)
	assert.NotNil(t, empty.ViewingKeyError)
}

func TestQuery_CreatedKeyUnlocks(t *testing.T) {
	f := newCoinFixture(t)
	resp, err := f.exec(alice, ExecuteMsg{CreateViewingKey: &CreateViewingKey{Entropy: "dice"}})
	require.NoError(t, err)

	var answer HandleAnswer
	require.NoError(t, json.Unmarshal(resp.Data, &answer))
	key := answer.CreateViewingKey.Key

	q, err := f.c.Query(QueryMsg{Balance: &BalanceQuery{Address: alice, Key: key, TokenID: "coin"}})
	require.NoError(t, err)
	require.NotNil(t, q.Balance)
}

func TestQuery_TransferHistory(t *testing.T) {
	f := newCoinFixture(t)
	f.setKey(bob, "bob-key")

	_, err := f.exec(alice, transfer("coin", alice, bob, 10))
	require.NoError(t, err)
	_, err = f.exec(bob, transfer("coin", bob, carol, 3))
	require.NoError(t, err)

	answer, err := f.c.Query(QueryMsg{TransferHistory: &TransferHistoryQuery{Address: bob, Key: "bob-key", PageSize: 10}})
	require.NoError(t, err)
	require.NotNil(t, answer.TransferHistory)
	assert.EqualValues(t, 2, answer.TransferHistory.Total)
	require.Len(t, answer.TransferHistory.Txs, 2)

	latest := answer.TransferHistory.Txs[0]
	assert.Equal(t, history.ActionTransfer, latest.Action.Kind)
	assert.Equal(t, bob, *latest.Action.From)
	assert.Equal(t, carol, *latest.Action.Recipient)
	assert.Nil(t, latest.Action.Sender)

	_, err = f.c.Query(QueryMsg{TransferHistory: &TransferHistoryQuery{Address: bob, Key: "bob-key"}})
	require.ErrorIs(t, err, history.ErrInvalidPageSize)
}

func TestQuery_DelegatedTransferRecordsSender(t *testing.T) {
	f := newCoinFixture(t)
	f.setKey(carol, "carol-key")
	allowance := amt(10)
	_, err := f.exec(alice, ExecuteMsg{GivePermission: &GivePermission{Address: bob, TokenID: "coin", Transfer: &allowance}})
	require.NoError(t, err)
	_, err = f.exec(bob, transfer("coin", alice, carol, 2))
	require.NoError(t, err)

	answer, err := f.c.Query(QueryMsg{TransferHistory: &TransferHistoryQuery{Address: carol, Key: "carol-key", PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, answer.TransferHistory.Txs, 1)
	require.NotNil(t, answer.TransferHistory.Txs[0].Action.Sender)
	assert.Equal(t, bob, *answer.TransferHistory.Txs[0].Action.Sender)
}

func TestQuery_PermissionEitherPartyKey(t *testing.T) {
	f := newCoinFixture(t)
	f.setKey(alice, "alice-key")
	f.setKey(bob, "bob-key")

	yes := true
	_, err := f.exec(alice, ExecuteMsg{GivePermission: &GivePermission{Address: bob, TokenID: "coin", ViewOwner: &yes}})
	require.NoError(t, err)

	for _, key := range []string{"alice-key", "bob-key"} {
		answer, err := f.c.Query(QueryMsg{Permission: &PermissionQuery{Owner: alice, PermAddress: bob, Key: key, TokenID: "coin"}})
		require.NoError(t, err)
		require.NotNil(t, answer.Permission, key)
		assert.True(t, answer.Permission.ViewOwner)
		assert.True(t, answer.Permission.TransferAllowance.IsZero())
	}

	answer, err := f.c.Query(QueryMsg{Permission: &PermissionQuery{Owner: alice, PermAddress: bob, Key: "carol", TokenID: "coin"}})
	require.NoError(t, err)
	assert.NotNil(t, answer.ViewingKeyError)
	assert.Nil(t, answer.Permission)
}

func TestQuery_InvalidMessage(t *testing.T) {
	f := newCoinFixture(t)
	_, err := f.c.Query(QueryMsg{})
	require.ErrorIs(t, err, ErrInvalidMessage)
}
