package node

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-mtl/config"
	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// genesisInitMsg converts a genesis file into the ledger's init request.
// The instantiator sends it in block 0 at the genesis timestamp.
func genesisInitMsg(g *config.Genesis) (contract.Env, contract.InitMsg, error) {
	sender, err := g.InstantiatorAddress()
	if err != nil {
		return contract.Env{}, contract.InitMsg{}, err
	}
	admin, err := g.AdminAddress()
	if err != nil {
		return contract.Env{}, contract.InitMsg{}, err
	}
	minters, err := g.MinterAddresses()
	if err != nil {
		return contract.Env{}, contract.InitMsg{}, err
	}

	msg := contract.InitMsg{
		HasAdmin: g.HasAdmin,
		Admin:    admin,
		Minters:  minters,
		Entropy:  g.Entropy,
	}
	for i := range g.InitialTokens {
		gt := &g.InitialTokens[i]
		t := contract.MintTokenID{TokenInfo: gt.TokenInfo()}
		for _, b := range gt.Balances {
			addr, amount, err := b.Parse()
			if err != nil {
				return contract.Env{}, contract.InitMsg{}, err
			}
			t.Balances = append(t.Balances, contract.Balance{Address: addr, Amount: amount})
		}
		msg.InitialTokens = append(msg.InitialTokens, t)
	}

	env := contract.Env{
		Sender: sender,
		Block:  state.BlockInfo{Height: 0, Time: g.Timestamp},
	}
	return env, msg, nil
}
