package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// parseBalances parses "addr=amount,addr=amount".
func parseBalances(s string) ([]contract.Balance, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []contract.Balance
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		addrStr, amountStr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("balance %q: expected addr=amount", part)
		}
		addr, err := types.ParseAddress(strings.TrimSpace(addrStr))
		if err != nil {
			return nil, fmt.Errorf("balance %q: %w", part, err)
		}
		amount, err := types.ParseAmount(amountStr)
		if err != nil {
			return nil, fmt.Errorf("balance %q: %w", part, err)
		}
		out = append(out, contract.Balance{Address: addr, Amount: amount})
	}
	return out, nil
}

// parseAddresses parses a comma-separated address list.
func parseAddresses(s string) ([]types.Address, error) {
	var out []types.Address
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := types.ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no addresses given")
	}
	return out, nil
}

// decodeAnswer strips response padding and decodes the handle answer.
func decodeAnswer(data string) (*contract.HandleAnswer, error) {
	var answer contract.HandleAnswer
	if err := json.Unmarshal([]byte(strings.TrimRight(data, " ")), &answer); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return &answer, nil
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func mustAddress(s, what string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid %s: %v", what, err)
	}
	return addr
}

func mustAmount(s string) types.Amount {
	amount, err := types.ParseAmount(s)
	if err != nil {
		fatal("%v", err)
	}
	return amount
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode output: %v", err)
	}
	fmt.Println(string(data))
}
