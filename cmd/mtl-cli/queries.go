package main

import (
	"flag"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/rpcclient"
)

func cmdInfo(client *rpcclient.Client) {
	info, err := client.NodeInfo()
	if err != nil {
		fatal("node_getInfo: %v", err)
	}
	answer, err := client.Query(contract.QueryMsg{ContractInfo: &contract.ContractInfoQuery{}})
	if err != nil {
		fatal("ledger_query: %v", err)
	}
	ci := answer.ContractInfo

	fmt.Printf("Chain:    %s (%s)\n", info.ChainID, info.Network)
	fmt.Printf("Height:   %d\n", info.Block.Height)
	fmt.Printf("Txs:      %d\n", info.TxCount)
	fmt.Printf("Uptime:   %ds\n", info.Uptime)
	if ci.Admin != nil {
		fmt.Printf("Admin:    %s\n", ci.Admin)
	} else {
		fmt.Printf("Admin:    (none)\n")
	}
	fmt.Printf("Minters:  %d\n", len(ci.Minters))
	for _, m := range ci.Minters {
		fmt.Printf("  %s\n", m)
	}
}

func cmdNonce(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("Usage: mtl-cli nonce <address>")
	}
	addr := mustAddress(args[0], "address")
	nonce, err := client.Nonce(addr)
	if err != nil {
		fatal("ledger_getNonce: %v", err)
	}
	fmt.Println(nonce)
}

// query runs msg and exits with the viewing-key message on a key mismatch.
func query(client *rpcclient.Client, msg contract.QueryMsg) *contract.QueryAnswer {
	answer, err := client.Query(msg)
	if err != nil {
		fatal("ledger_query: %v", err)
	}
	if answer.ViewingKeyError != nil {
		fatal("%s", answer.ViewingKeyError.Msg)
	}
	return answer
}

func cmdBalance(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	addr := fs.String("address", "", "Address")
	key := fs.String("viewing-key", "", "Viewing key of the address")
	tokenID := fs.String("token", "", "Token ID")
	fs.Parse(args)

	if *addr == "" || *key == "" || *tokenID == "" {
		fatal("Usage: mtl-cli balance --address <a> --viewing-key <k> --token <id>")
	}

	answer := query(client, contract.QueryMsg{Balance: &contract.BalanceQuery{
		Address: mustAddress(*addr, "address"),
		Key:     *key,
		TokenID: *tokenID,
	}})
	fmt.Printf("%s %s\n", answer.Balance.Amount, *tokenID)
}

func cmdHistory(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	addr := fs.String("address", "", "Address")
	key := fs.String("viewing-key", "", "Viewing key of the address")
	page := fs.Uint("page", 0, "Page number (0 = most recent)")
	pageSize := fs.Uint("page-size", 20, "Entries per page")
	fs.Parse(args)

	if *addr == "" || *key == "" {
		fatal("Usage: mtl-cli history --address <a> --viewing-key <k> [--page <n>] [--page-size <n>]")
	}

	answer := query(client, contract.QueryMsg{TransferHistory: &contract.TransferHistoryQuery{
		Address:  mustAddress(*addr, "address"),
		Key:      *key,
		Page:     uint32(*page),
		PageSize: uint32(*pageSize),
	}})
	fmt.Printf("Total: %d\n", answer.TransferHistory.Total)
	printJSON(answer.TransferHistory.Txs)
}

func cmdPermission(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("permission", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner address")
	grantee := fs.String("grantee", "", "Address holding the permission")
	key := fs.String("viewing-key", "", "Viewing key of the owner or the grantee")
	tokenID := fs.String("token", "", "Token ID")
	fs.Parse(args)

	if *owner == "" || *grantee == "" || *key == "" || *tokenID == "" {
		fatal("Usage: mtl-cli permission --owner <a> --grantee <a> --viewing-key <k> --token <id>")
	}

	answer := query(client, contract.QueryMsg{Permission: &contract.PermissionQuery{
		Owner:       mustAddress(*owner, "owner"),
		PermAddress: mustAddress(*grantee, "grantee"),
		Key:         *key,
		TokenID:     *tokenID,
	}})
	printJSON(answer.Permission)
}
