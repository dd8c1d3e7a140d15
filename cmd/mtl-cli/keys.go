package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingnet-mtl/config"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
	"golang.org/x/term"
)

func cmdKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "", "Write the key (hex) to this file")
	fs.Parse(args)

	key, err := crypto.GenerateKey()
	if err != nil {
		fatal("generate key: %v", err)
	}
	defer key.Zero()

	keyHex := hex.EncodeToString(key.Serialize())
	if *out != "" {
		if _, err := os.Stat(*out); err == nil {
			fatal("%s already exists", *out)
		}
		if err := os.WriteFile(*out, []byte(keyHex+"\n"), 0600); err != nil {
			fatal("write key: %v", err)
		}
		fmt.Printf("Key written to %s\n", *out)
	} else {
		fmt.Printf("Private key: %s\n", keyHex)
		fmt.Println("\nWARNING: Store this key securely. Anyone with it controls the address.")
	}
	fmt.Printf("Public key:  %s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("Address:     %s\n", key.Address())
}

func cmdAddress(g globals) {
	key := loadSigner(g)
	defer key.Zero()
	fmt.Println(key.Address())
}

func cmdInitGenesis(g globals, args []string) {
	fs := flag.NewFlagSet("init-genesis", flag.ExitOnError)
	out := fs.String("out", "", "Genesis file to write")
	chainID := fs.String("chain-id", "", "Ledger chain ID (default: mtl-<network>-local)")
	entropy := fs.String("entropy", "", "Viewing-key seed entropy (default: random)")
	fs.Parse(args)

	if *out == "" {
		fatal("Usage: mtl-cli init-genesis --out <file> [--chain-id <id>] [--entropy <s>]")
	}

	key := loadSigner(g)
	defer key.Zero()
	addr := key.Address().String()

	if *chainID == "" {
		*chainID = "mtl-" + g.network + "-local"
	}
	if *entropy == "" {
		*entropy = randomEntropy()
	}

	gen := &config.Genesis{
		ChainID:      *chainID,
		Timestamp:    uint64(time.Now().Unix()),
		Instantiator: addr,
		HasAdmin:     true,
		Minters:      []string{addr},
		Entropy:      *entropy,
	}
	if err := gen.Validate(); err != nil {
		fatal("invalid genesis: %v", err)
	}
	if err := gen.Save(*out); err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Genesis written to %s\n", *out)
	fmt.Printf("  Chain ID:     %s\n", gen.ChainID)
	fmt.Printf("  Admin/minter: %s\n", addr)
	fmt.Printf("\nStart the node with: mtld --genesis=%s\n", *out)
}

// randomEntropy returns a fresh random key's hex as entropy.
func randomEntropy() string {
	k, err := crypto.GenerateKey()
	if err != nil {
		fatal("generate entropy: %v", err)
	}
	defer k.Zero()
	return hex.EncodeToString(k.Serialize())
}

// loadSigner reads the signing key from --key, or prompts for it.
func loadSigner(g globals) *crypto.PrivateKey {
	var keyHex string
	if g.keyFile != "" {
		data, err := os.ReadFile(g.keyFile)
		if err != nil {
			fatal("read key file: %v", err)
		}
		keyHex = string(data)
	} else {
		input, err := readPassword("Enter private key (hex): ")
		if err != nil {
			fatal("read key: %v", err)
		}
		keyHex = string(input)
	}

	key, err := crypto.PrivateKeyFromHex(keyHex)
	if err != nil {
		fatal("%v", err)
	}
	return key
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
