package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

func testAddr(b byte) string {
	var a types.Address
	a[0] = b
	a[19] = b
	return a.String()
}

func sampleGenesis() *Genesis {
	return &Genesis{
		ChainID:  "mtl-test-1",
		HasAdmin: true,
		Admin:    testAddr(1),
		Minters:  []string{testAddr(1), testAddr(2)},
		Entropy:  "seed",
		InitialTokens: []GenesisToken{
			{
				TokenID:    "gold",
				Name:       "Gold",
				Symbol:     "GLD",
				Decimals:   6,
				EnableBurn: true,
				Balances: []GenesisBalance{
					{Address: testAddr(1), Amount: "1000"},
				},
			},
			{
				TokenID:  "deed-1",
				Name:     "Deed",
				Symbol:   "DEED",
				IsUnique: true,
				Balances: []GenesisBalance{
					{Address: testAddr(2), Amount: "1"},
				},
			},
		},
	}
}

func TestGenesis_Validate_MainnetValid(t *testing.T) {
	g := MainnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("mainnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_TestnetValid(t *testing.T) {
	g := TestnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("testnet genesis should be valid: %v", err)
	}
	if g.ChainID == MainnetGenesis().ChainID {
		t.Error("testnet should have its own chain id")
	}
}

func TestGenesis_Validate_Sample(t *testing.T) {
	if err := sampleGenesis().Validate(); err != nil {
		t.Fatalf("sample genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Genesis)
		want   string
	}{
		{"no chain id", func(g *Genesis) { g.ChainID = "" }, "chain_id"},
		{"bad admin", func(g *Genesis) { g.Admin = "nope" }, "admin"},
		{"admin without has_admin", func(g *Genesis) { g.HasAdmin = false }, "has_admin"},
		{"bad instantiator", func(g *Genesis) { g.Instantiator = "q" }, "instantiator"},
		{"bad minter", func(g *Genesis) { g.Minters = append(g.Minters, "zz") }, "minter"},
		{"duplicate token", func(g *Genesis) {
			g.InitialTokens = append(g.InitialTokens, g.InitialTokens[0])
		}, "duplicate"},
		{"empty token id", func(g *Genesis) { g.InitialTokens[0].TokenID = "" }, "token"},
		{"decimals", func(g *Genesis) { g.InitialTokens[0].Decimals = 19 }, "decimals"},
		{"bad amount", func(g *Genesis) { g.InitialTokens[0].Balances[0].Amount = "-5" }, "amount"},
		{"bad holder", func(g *Genesis) { g.InitialTokens[0].Balances[0].Address = "x" }, "address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sampleGenesis()
			tt.mutate(g)
			err := g.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestGenesis_HasAdminWithoutAddress(t *testing.T) {
	g := sampleGenesis()
	g.Admin = ""
	if err := g.Validate(); err == nil {
		t.Fatal("has_admin without admin or instantiator should be rejected")
	}

	g.Instantiator = testAddr(3)
	if err := g.Validate(); err != nil {
		t.Fatalf("has_admin with instantiator should be valid: %v", err)
	}
	admin, err := g.AdminAddress()
	if err != nil {
		t.Fatal(err)
	}
	if admin != nil {
		t.Error("admin should be nil when not configured")
	}
	inst, err := g.InstantiatorAddress()
	if err != nil {
		t.Fatal(err)
	}
	if inst.String() != testAddr(3) {
		t.Errorf("instantiator = %s, want %s", inst, testAddr(3))
	}
}

func TestGenesis_Accessors(t *testing.T) {
	g := sampleGenesis()

	admin, err := g.AdminAddress()
	if err != nil {
		t.Fatal(err)
	}
	if admin == nil || admin.String() != testAddr(1) {
		t.Errorf("admin = %v, want %s", admin, testAddr(1))
	}

	minters, err := g.MinterAddresses()
	if err != nil {
		t.Fatal(err)
	}
	if len(minters) != 2 || minters[1].String() != testAddr(2) {
		t.Errorf("minters = %v", minters)
	}

	info := g.InitialTokens[0].TokenInfo()
	if info.TokenID != "gold" || info.Decimals != 6 || !info.Config.EnableBurn || info.IsUnique {
		t.Errorf("token info = %+v", info)
	}

	addr, amt, err := g.InitialTokens[0].Balances[0].Parse()
	if err != nil {
		t.Fatal(err)
	}
	if addr.String() != testAddr(1) || !amt.Eq(types.NewAmount(1000)) {
		t.Errorf("balance = %s %s", addr, amt)
	}
}

func TestGenesis_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	g := sampleGenesis()
	if err := g.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadGenesis(path)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := g.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := loaded.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash changed across save/load")
	}
}

func TestGenesis_HashDiffers(t *testing.T) {
	a, _ := sampleGenesis().Hash()
	g := sampleGenesis()
	g.Entropy = "other"
	b, _ := g.Hash()
	if a == b {
		t.Error("different genesis should hash differently")
	}
}

func TestLoadGenesis_Missing(t *testing.T) {
	if _, err := LoadGenesis(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
