package main

import (
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

func TestParseBalances(t *testing.T) {
	a := types.Address{1}
	b := types.Address{2}
	got, err := parseBalances(a.String() + "=10, " + b.String() + "=340282366920938463463374607431768211455")
	if err != nil {
		t.Fatalf("parseBalances: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d balances, want 2", len(got))
	}
	if got[0].Address != a || got[0].Amount.String() != "10" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Address != b || !got[1].Amount.Eq(types.MaxAmount) {
		t.Errorf("second = %+v", got[1])
	}

	empty, err := parseBalances("  ")
	if err != nil || empty != nil {
		t.Errorf("empty input = %v, %v", empty, err)
	}
}

func TestParseBalances_Errors(t *testing.T) {
	addr := types.Address{1}.String()
	for _, in := range []string{
		"nope",
		addr,
		"bad=5",
		addr + "=-1",
		addr + "=340282366920938463463374607431768211456",
	} {
		if _, err := parseBalances(in); err == nil {
			t.Errorf("parseBalances(%q) should fail", in)
		}
	}
}

func TestParseAddresses(t *testing.T) {
	a := types.Address{1}
	b := types.Address{2}
	got, err := parseAddresses(a.String() + "," + b.String() + ",")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("got %v", got)
	}
	if _, err := parseAddresses(""); err == nil {
		t.Error("empty list should fail")
	}
	if _, err := parseAddresses("x"); err == nil {
		t.Error("bad address should fail")
	}
}

func TestDecodeAnswer(t *testing.T) {
	answer, err := decodeAnswer(`{"create_viewing_key":{"key":"api_key_x"}}      `)
	if err != nil {
		t.Fatal(err)
	}
	if answer.CreateViewingKey == nil || answer.CreateViewingKey.Key != "api_key_x" {
		t.Errorf("answer = %+v", answer)
	}
	if _, err := decodeAnswer("   "); err == nil {
		t.Error("blank data should fail")
	}
}

func TestParseGlobals(t *testing.T) {
	g, rest := parseGlobals([]string{"--network", "testnet", "--key=k.hex", "balance", "--address", "x"})
	if g.network != "testnet" || g.keyFile != "k.hex" {
		t.Errorf("globals = %+v", g)
	}
	if g.rpcURL != "http://127.0.0.1:9645" {
		t.Errorf("rpc = %s, want testnet default", g.rpcURL)
	}
	if len(rest) != 3 || rest[0] != "balance" {
		t.Errorf("rest = %v", rest)
	}

	g, _ = parseGlobals([]string{"--network=testnet", "--rpc", "http://node:1", "info"})
	if g.rpcURL != "http://node:1" {
		t.Errorf("explicit rpc overridden: %s", g.rpcURL)
	}
}
