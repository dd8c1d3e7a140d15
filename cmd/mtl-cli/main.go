// mtl-cli is a command-line client for interacting with an mtld node.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-mtl/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// globals holds flags that appear before the subcommand.
type globals struct {
	rpcURL  string
	network string
	keyFile string
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	g, args := parseGlobals(os.Args[1:])

	// Set address HRP based on network.
	if g.network == "testnet" {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client := rpcclient.New(g.rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "keygen":
		cmdKeygen(cmdArgs)
	case "address":
		cmdAddress(g)
	case "init-genesis":
		cmdInitGenesis(g, cmdArgs)
	case "info":
		cmdInfo(client)

	// Signed requests.
	case "mint-ids":
		cmdMintIDs(client, g, cmdArgs)
	case "mint":
		cmdMint(client, g, cmdArgs)
	case "burn":
		cmdBurn(client, g, cmdArgs)
	case "transfer":
		cmdTransfer(client, g, cmdArgs)
	case "send":
		cmdSend(client, g, cmdArgs)
	case "permit":
		cmdPermit(client, g, cmdArgs)
	case "register-receive":
		cmdRegisterReceive(client, g, cmdArgs)
	case "create-key":
		cmdCreateKey(client, g, cmdArgs)
	case "set-key":
		cmdSetKey(client, g, cmdArgs)
	case "minters":
		cmdMinters(client, g, cmdArgs)

	// Queries.
	case "balance":
		cmdBalance(client, cmdArgs)
	case "history":
		cmdHistory(client, cmdArgs)
	case "permission":
		cmdPermission(client, cmdArgs)
	case "nonce":
		cmdNonce(client, cmdArgs)

	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// parseGlobals scans --rpc, --network and --key before the subcommand.
func parseGlobals(args []string) (globals, []string) {
	g := globals{
		rpcURL:  "http://127.0.0.1:9545",
		network: "mainnet",
	}
	rpcSet := false

	for len(args) > 0 {
		name, value, consumed := splitGlobal(args)
		if consumed == 0 {
			break
		}
		switch name {
		case "rpc":
			g.rpcURL = value
			rpcSet = true
		case "network":
			g.network = value
		case "key":
			g.keyFile = value
		}
		args = args[consumed:]
	}

	if !rpcSet && g.network == "testnet" {
		g.rpcURL = "http://127.0.0.1:9645"
	}
	return g, args
}

// splitGlobal recognizes "--name value" and "--name=value" for the global
// flags. It returns how many args were consumed, zero if none.
func splitGlobal(args []string) (name, value string, consumed int) {
	for _, n := range []string{"rpc", "network", "key"} {
		flagName := "--" + n
		switch {
		case args[0] == flagName && len(args) > 1:
			return n, args[1], 2
		case strings.HasPrefix(args[0], flagName+"="):
			return n, args[0][len(flagName)+1:], 1
		}
	}
	return "", "", 0
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mtl-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:9545, testnet 9645)
  --network <net>     mainnet (default) or testnet
  --key <file>        Private key file (hex); prompted when omitted

Keys and setup:
  keygen [--out <file>]           Generate a signing key
  address                         Show the address of the signing key
  init-genesis --out <file> [--chain-id <id>] [--entropy <s>]
                                  Write a genesis making the key admin and minter
  info                            Show node and ledger status

Requests (signed):
  mint-ids --id <id> --name <n> --symbol <S> [--decimals <n>] [--unique] [--burn]
           [--to <addr=amt,...>] [--memo <m>]
                                  Create a token (minters only)
  mint --token <id> --to <addr=amt,...> [--memo <m>]
                                  Mint more of a fungible token (minters only)
  burn --token <id> --amount <n> [--memo <m>]
                                  Burn your own tokens
  transfer --token <id> --to <addr> --amount <n> [--from <addr>] [--memo <m>]
                                  Transfer tokens
  send --token <id> --to <addr> --amount <n> [--from <addr>] [--code-hash <h>]
       [--msg <text>] [--memo <m>]
                                  Transfer and notify a receiver
  permit --to <addr> --token <id> [--view-owner] [--view-metadata] [--allowance <n>]
                                  Grant permissions to another address
  register-receive --code-hash <h>
                                  Register as a receiver
  create-key [--entropy <s>]      Generate a viewing key
  set-key <viewing_key>           Set a viewing key
  minters add|remove <addr,...>   Change the minter set (admin only)

Queries:
  balance --address <a> --viewing-key <k> --token <id>
  history --address <a> --viewing-key <k> [--page <n>] [--page-size <n>]
  permission --owner <a> --grantee <a> --viewing-key <k> --token <id>
  nonce <address>                 Next request nonce of an address
`)
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
