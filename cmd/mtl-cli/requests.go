package main

import (
	"flag"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
)

// execute signs and submits msg, then prints the outcome.
func execute(client *rpcclient.Client, key *crypto.PrivateKey, msg contract.ExecuteMsg) *contract.HandleAnswer {
	res, err := client.Execute(key, msg)
	if err != nil {
		fatal("ledger_execute: %v", err)
	}
	answer, err := decodeAnswer(res.Data)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Applied (sender %s)\n", res.Sender)
	for _, m := range res.Messages {
		fmt.Printf("  Notified %s (code hash %s)\n", m.Contract, m.CodeHash)
	}
	return answer
}

func cmdMintIDs(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("mint-ids", flag.ExitOnError)
	id := fs.String("id", "", "Token ID")
	name := fs.String("name", "", "Token name")
	symbol := fs.String("symbol", "", "Token symbol")
	decimals := fs.Uint("decimals", 0, "Decimal places (0-18)")
	unique := fs.Bool("unique", false, "Unique (non-fungible) token")
	burn := fs.Bool("burn", false, "Allow holders to burn")
	to := fs.String("to", "", "Initial balances: addr=amount,...")
	memo := fs.String("memo", "", "Memo")
	fs.Parse(args)

	if *id == "" || *name == "" || *symbol == "" {
		fatal("Usage: mtl-cli mint-ids --id <id> --name <n> --symbol <S> [--decimals <n>] [--unique] [--burn] [--to <addr=amt,...>]")
	}
	if *decimals > token.MaxDecimals {
		fatal("decimals must be at most %d", token.MaxDecimals)
	}
	balances, err := parseBalances(*to)
	if err != nil {
		fatal("%v", err)
	}

	key := loadSigner(g)
	defer key.Zero()
	execute(client, key, contract.ExecuteMsg{MintTokenIDs: &contract.MintTokenIDs{
		InitialTokens: []contract.MintTokenID{{
			TokenInfo: token.Info{
				TokenID:  *id,
				Name:     *name,
				Symbol:   *symbol,
				Decimals: uint8(*decimals),
				IsUnique: *unique,
				Config:   token.Config{EnableBurn: *burn},
			},
			Balances: balances,
		}},
		Memo: *memo,
	}})
	fmt.Printf("Token %s created\n", *id)
}

func cmdMint(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token ID")
	to := fs.String("to", "", "Recipients: addr=amount,...")
	memo := fs.String("memo", "", "Memo")
	fs.Parse(args)

	if *tokenID == "" || *to == "" {
		fatal("Usage: mtl-cli mint --token <id> --to <addr=amt,...> [--memo <m>]")
	}
	balances, err := parseBalances(*to)
	if err != nil {
		fatal("%v", err)
	}

	key := loadSigner(g)
	defer key.Zero()
	execute(client, key, contract.ExecuteMsg{MintTokens: &contract.MintTokens{
		MintTokens: []contract.TokenAmount{{TokenID: *tokenID, Balances: balances}},
		Memo:       *memo,
	}})
}

func cmdBurn(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token ID")
	amountStr := fs.String("amount", "", "Amount to burn")
	memo := fs.String("memo", "", "Memo")
	fs.Parse(args)

	if *tokenID == "" || *amountStr == "" {
		fatal("Usage: mtl-cli burn --token <id> --amount <n> [--memo <m>]")
	}
	amount := mustAmount(*amountStr)

	key := loadSigner(g)
	defer key.Zero()
	owner := key.Address()

	execute(client, key, contract.ExecuteMsg{BurnTokens: &contract.BurnTokens{
		BurnTokens: []contract.TokenAmount{{
			TokenID:  *tokenID,
			Balances: []contract.Balance{{Address: owner, Amount: amount}},
		}},
		Memo: *memo,
	}})
}

// transferFlags are shared by transfer and send.
type transferFlags struct {
	fs        *flag.FlagSet
	tokenID   *string
	from      *string
	to        *string
	amountStr *string
	memo      *string
}

func newTransferFlags(name string) *transferFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &transferFlags{
		fs:        fs,
		tokenID:   fs.String("token", "", "Token ID"),
		from:      fs.String("from", "", "Owner to move from (default: signer)"),
		to:        fs.String("to", "", "Recipient address"),
		amountStr: fs.String("amount", "", "Amount"),
		memo:      fs.String("memo", "", "Memo"),
	}
}

// resolve validates the shared flags; from defaults to the signer.
func (tf *transferFlags) resolve(key *crypto.PrivateKey, usageLine string) contract.Transfer {
	if *tf.tokenID == "" || *tf.to == "" || *tf.amountStr == "" {
		fatal("Usage: %s", usageLine)
	}
	t := contract.Transfer{
		TokenID:   *tf.tokenID,
		Recipient: mustAddress(*tf.to, "recipient"),
		Amount:    mustAmount(*tf.amountStr),
		Memo:      *tf.memo,
	}
	if *tf.from != "" {
		t.From = mustAddress(*tf.from, "from")
	} else {
		t.From = key.Address()
	}
	return t
}

func cmdTransfer(client *rpcclient.Client, g globals, args []string) {
	tf := newTransferFlags("transfer")
	tf.fs.Parse(args)
	key := loadSigner(g)
	defer key.Zero()
	t := tf.resolve(key, "mtl-cli transfer --token <id> --to <addr> --amount <n> [--from <addr>] [--memo <m>]")

	execute(client, key, contract.ExecuteMsg{Transfer: &t})
	fmt.Printf("Transferred %s %s from %s to %s\n", t.Amount, t.TokenID, t.From, t.Recipient)
}

func cmdSend(client *rpcclient.Client, g globals, args []string) {
	tf := newTransferFlags("send")
	codeHash := tf.fs.String("code-hash", "", "Recipient code hash (overrides its registration)")
	msgText := tf.fs.String("msg", "", "Message forwarded to the recipient")
	tf.fs.Parse(args)
	key := loadSigner(g)
	defer key.Zero()
	t := tf.resolve(key, "mtl-cli send --token <id> --to <addr> --amount <n> [--from <addr>] [--code-hash <h>] [--msg <text>]")

	send := contract.Send{
		TokenID:           t.TokenID,
		From:              t.From,
		Recipient:         t.Recipient,
		RecipientCodeHash: *codeHash,
		Amount:            t.Amount,
		Memo:              t.Memo,
	}
	if *msgText != "" {
		send.Msg = []byte(*msgText)
	}
	execute(client, key, contract.ExecuteMsg{Send: &send})
}

func cmdPermit(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("permit", flag.ExitOnError)
	to := fs.String("to", "", "Address receiving the permission")
	tokenID := fs.String("token", "", "Token ID")
	viewOwner := fs.Bool("view-owner", false, "Allow viewing the owner")
	viewMeta := fs.Bool("view-metadata", false, "Allow viewing private metadata")
	allowance := fs.String("allowance", "", "Transfer allowance (replaces the current one)")
	fs.Parse(args)

	if *to == "" || *tokenID == "" {
		fatal("Usage: mtl-cli permit --to <addr> --token <id> [--view-owner] [--view-metadata] [--allowance <n>]")
	}

	gp := contract.GivePermission{Address: mustAddress(*to, "address"), TokenID: *tokenID}
	// Unset flags leave the stored value unchanged.
	if isFlagSet(fs, "view-owner") {
		gp.ViewOwner = viewOwner
	}
	if isFlagSet(fs, "view-metadata") {
		gp.ViewPrivateMetadata = viewMeta
	}
	if *allowance != "" {
		a := mustAmount(*allowance)
		gp.Transfer = &a
	}
	key := loadSigner(g)
	defer key.Zero()
	execute(client, key, contract.ExecuteMsg{GivePermission: &gp})
}

func cmdRegisterReceive(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("register-receive", flag.ExitOnError)
	codeHash := fs.String("code-hash", "", "Code hash to notify with")
	fs.Parse(args)

	if *codeHash == "" {
		fatal("Usage: mtl-cli register-receive --code-hash <h>")
	}
	key := loadSigner(g)
	defer key.Zero()
	execute(client, key, contract.ExecuteMsg{RegisterReceive: &contract.RegisterReceive{CodeHash: *codeHash}})
}

func cmdCreateKey(client *rpcclient.Client, g globals, args []string) {
	fs := flag.NewFlagSet("create-key", flag.ExitOnError)
	entropy := fs.String("entropy", "", "Extra entropy (default: random)")
	fs.Parse(args)

	if *entropy == "" {
		*entropy = randomEntropy()
	}
	key := loadSigner(g)
	defer key.Zero()
	answer := execute(client, key, contract.ExecuteMsg{CreateViewingKey: &contract.CreateViewingKey{Entropy: *entropy}})
	if answer.CreateViewingKey == nil {
		fatal("unexpected answer")
	}
	fmt.Printf("Viewing key: %s\n", answer.CreateViewingKey.Key)
}

func cmdSetKey(client *rpcclient.Client, g globals, args []string) {
	if len(args) != 1 {
		fatal("Usage: mtl-cli set-key <viewing_key>")
	}
	key := loadSigner(g)
	defer key.Zero()
	execute(client, key, contract.ExecuteMsg{SetViewingKey: &contract.SetViewingKey{Key: args[0]}})
}

func cmdMinters(client *rpcclient.Client, g globals, args []string) {
	if len(args) != 2 || (args[0] != "add" && args[0] != "remove") {
		fatal("Usage: mtl-cli minters add|remove <addr,...>")
	}
	addrs, err := parseAddresses(args[1])
	if err != nil {
		fatal("%v", err)
	}

	key := loadSigner(g)
	defer key.Zero()
	m := &contract.Minters{Minters: addrs}
	if args[0] == "add" {
		execute(client, key, contract.ExecuteMsg{AddMinters: m})
	} else {
		execute(client, key, contract.ExecuteMsg{RemoveMinters: m})
	}
}
