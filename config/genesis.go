package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// Genesis holds the ledger's initial configuration. It is applied once,
// when the ledger database is empty, and its hash is kept to detect a
// different genesis on restart.
type Genesis struct {
	// Ledger identity
	ChainID   string `json:"chain_id"`
	Timestamp uint64 `json:"timestamp"`

	// Instantiator is the account that creates the ledger. It becomes the
	// admin when HasAdmin is set without an explicit Admin, and is recorded
	// as the minter of the initial balances.
	Instantiator string `json:"instantiator,omitempty"`

	// Administration. With HasAdmin false the ledger has no admin and the
	// minter set can never change.
	HasAdmin bool     `json:"has_admin"`
	Admin    string   `json:"admin,omitempty"`
	Minters  []string `json:"minters,omitempty"`

	// Entropy seeds the viewing-key generator.
	Entropy string `json:"entropy"`

	InitialTokens []GenesisToken `json:"initial_tokens,omitempty"`
}

// GenesisToken is a token created at genesis together with its balances.
type GenesisToken struct {
	TokenID    string           `json:"token_id"`
	Name       string           `json:"name"`
	Symbol     string           `json:"symbol"`
	Decimals   uint8            `json:"decimals"`
	IsUnique   bool             `json:"is_unique"`
	EnableBurn bool             `json:"enable_burn"`
	Balances   []GenesisBalance `json:"balances,omitempty"`
}

// GenesisBalance credits Amount (decimal string) of a token to Address.
type GenesisBalance struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the built-in mainnet genesis: no admin, no
// minters and no tokens. Operators normally supply their own file.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "mtl-mainnet-1",
		Timestamp: 1791676800, // 2026-10-11
		Entropy:   "mtl mainnet genesis",
	}
}

// TestnetGenesis returns the built-in testnet genesis.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "mtl-testnet-1"
	g.Entropy = "mtl testnet genesis"
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is well formed. Ledger
// rules such as unique-token cardinality are enforced when the genesis is
// applied.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	if !g.HasAdmin && g.Admin != "" {
		return fmt.Errorf("admin is set but has_admin is false")
	}
	if g.HasAdmin && g.Admin == "" && g.Instantiator == "" {
		return fmt.Errorf("has_admin requires admin or instantiator")
	}
	if _, err := g.AdminAddress(); err != nil {
		return err
	}
	if _, err := g.InstantiatorAddress(); err != nil {
		return err
	}
	if _, err := g.MinterAddresses(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(g.InitialTokens))
	for i := range g.InitialTokens {
		gt := &g.InitialTokens[i]
		if seen[gt.TokenID] {
			return fmt.Errorf("duplicate token_id %q", gt.TokenID)
		}
		seen[gt.TokenID] = true

		info := gt.TokenInfo()
		if err := info.Validate(); err != nil {
			return fmt.Errorf("token %q: %w", gt.TokenID, err)
		}
		for _, b := range gt.Balances {
			if _, _, err := b.Parse(); err != nil {
				return fmt.Errorf("token %q: %w", gt.TokenID, err)
			}
		}
	}

	return nil
}

// AdminAddress returns the explicit admin, or nil when none is given.
func (g *Genesis) AdminAddress() (*types.Address, error) {
	if g.Admin == "" {
		return nil, nil
	}
	addr, err := types.ParseAddress(g.Admin)
	if err != nil {
		return nil, fmt.Errorf("invalid admin address %q: %w", g.Admin, err)
	}
	return &addr, nil
}

// InstantiatorAddress returns the instantiator, or the zero address when
// none is given.
func (g *Genesis) InstantiatorAddress() (types.Address, error) {
	if g.Instantiator == "" {
		return types.Address{}, nil
	}
	addr, err := types.ParseAddress(g.Instantiator)
	if err != nil {
		return types.Address{}, fmt.Errorf("invalid instantiator address %q: %w", g.Instantiator, err)
	}
	return addr, nil
}

// MinterAddresses parses the minter list.
func (g *Genesis) MinterAddresses() ([]types.Address, error) {
	out := make([]types.Address, 0, len(g.Minters))
	for _, s := range g.Minters {
		addr, err := types.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid minter address %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// TokenInfo returns the token description for gt.
func (gt *GenesisToken) TokenInfo() token.Info {
	return token.Info{
		TokenID:  gt.TokenID,
		Name:     gt.Name,
		Symbol:   gt.Symbol,
		Decimals: gt.Decimals,
		IsUnique: gt.IsUnique,
		Config:   token.Config{EnableBurn: gt.EnableBurn},
	}
}

// Parse decodes the address and amount of b.
func (b GenesisBalance) Parse() (types.Address, types.Amount, error) {
	addr, err := types.ParseAddress(b.Address)
	if err != nil {
		return types.Address{}, types.Amount{}, fmt.Errorf("invalid balance address %q: %w", b.Address, err)
	}
	amt, err := types.ParseAmount(b.Amount)
	if err != nil {
		return types.Address{}, types.Amount{}, fmt.Errorf("invalid balance amount: %w", err)
	}
	return addr, amt, nil
}

// Hash returns a BLAKE3 hash of the genesis configuration.
// Used to detect genesis mismatches on restart.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
