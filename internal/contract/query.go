package contract

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/history"
	"github.com/Klingon-tech/klingnet-mtl/internal/ledger"
	"github.com/Klingon-tech/klingnet-mtl/internal/log"
	"github.com/Klingon-tech/klingnet-mtl/internal/permission"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/viewkey"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// Query answers a read-only request from committed state. Private queries
// run only after a viewing-key match; otherwise the answer is a
// ViewingKeyError that reads the same for a wrong key and a missing one.
func (c *Contract) Query(msg QueryMsg) (*QueryAnswer, error) {
	if n := msg.variants(); n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMessage, n)
	}
	if msg.ContractInfo != nil {
		return c.contractInfo()
	}

	candidates, key := msg.authParams()
	_, ok, err := viewkey.NewGate(c.db).Authenticate(candidates, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Query.Debug().Int("candidates", len(candidates)).Msg("Viewing key rejected")
		return &QueryAnswer{ViewingKeyError: &ViewingKeyError{Msg: viewkey.WrongKeyMessage}}, nil
	}

	switch {
	case msg.Balance != nil:
		q := msg.Balance
		amount, err := ledger.New(c.db).Balance(q.TokenID, q.Address)
		if err != nil {
			return nil, err
		}
		return &QueryAnswer{Balance: &BalanceAnswer{Amount: amount}}, nil

	case msg.TransferHistory != nil:
		q := msg.TransferHistory
		txs, total, err := history.NewRecorder(c.db).GetTxs(q.Address, q.Page, q.PageSize)
		if err != nil {
			return nil, err
		}
		return &QueryAnswer{TransferHistory: &TransferHistoryAnswer{Txs: txs, Total: total}}, nil

	default:
		q := msg.Permission
		perm, err := permission.NewEngine(c.db).Get(q.Owner, q.PermAddress, q.TokenID)
		if err != nil {
			return nil, err
		}
		return &QueryAnswer{Permission: &perm}, nil
	}
}

func (c *Contract) contractInfo() (*QueryAnswer, error) {
	cfg, err := state.LoadConfig(c.db)
	if err != nil {
		return nil, err
	}
	block, err := state.LoadBlock(c.db)
	if err != nil {
		return nil, err
	}
	return &QueryAnswer{ContractInfo: &ContractInfoAnswer{
		Admin:   cfg.Admin,
		Minters: cfg.Minters,
		TxCount: cfg.TxCount,
		Block:   block,
	}}, nil
}

// Nonce returns the nonce addr's next signed request must carry.
func (c *Contract) Nonce(addr types.Address) (uint64, error) {
	return state.LoadNonce(c.db, addr)
}

func (m *QueryMsg) variants() int {
	n := 0
	for _, set := range []bool{m.ContractInfo != nil, m.Balance != nil, m.TransferHistory != nil, m.Permission != nil} {
		if set {
			n++
		}
	}
	return n
}

// authParams returns the accounts whose viewing key may unlock the query.
func (m *QueryMsg) authParams() ([]types.Address, string) {
	switch {
	case m.Balance != nil:
		return []types.Address{m.Balance.Address}, m.Balance.Key
	case m.TransferHistory != nil:
		return []types.Address{m.TransferHistory.Address}, m.TransferHistory.Key
	case m.Permission != nil:
		return []types.Address{m.Permission.Owner, m.Permission.PermAddress}, m.Permission.Key
	}
	return nil, ""
}
