// Package node provides a reusable ledger node that can be embedded in
// any binary.
package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-mtl/config"
	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	klog "github.com/Klingon-tech/klingnet-mtl/internal/log"
	"github.com/Klingon-tech/klingnet-mtl/internal/rpc"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
	"github.com/rs/zerolog"
)

// ErrGenesisMismatch is returned when the configured genesis file differs
// from the one the ledger was created with.
var ErrGenesisMismatch = errors.New("genesis does not match the initialized ledger")

// metaPrefix namespaces node bookkeeping away from ledger state.
var metaPrefix = []byte("m/")

var genesisKey = []byte("genesis")

// Node is a fully-initialized ledger node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	// Core
	db     storage.DB
	meta   *storage.PrefixDB
	ledger *contract.Contract

	// mu serializes executes; queries take the read side so they never
	// observe a half-applied request.
	mu     sync.RWMutex
	height uint64
	now    func() time.Time

	// RPC
	rpcServer *rpc.Server
}

// New creates and initializes a new Node: logger, storage and the ledger
// itself (from genesis on first start). It does NOT start the RPC server.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Set address HRP ──────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "mtld.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	// ── 3. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.LedgerDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.LedgerDir(), err)
	}
	logger.Info().Str("path", cfg.LedgerDir()).Msg("Database opened")

	n, err := newNode(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

// newNode wires a node over an open database.
func newNode(cfg *config.Config, db storage.DB, logger zerolog.Logger) (*Node, error) {
	n := &Node{
		cfg:    cfg,
		logger: logger,
		db:     db,
		meta:   storage.NewPrefixDB(db, metaPrefix),
		ledger: contract.New(db),
		now:    time.Now,
	}

	// ── 4. Genesis ──────────────────────────────────────────────────
	genesis, err := n.setupLedger()
	if err != nil {
		return nil, err
	}
	n.genesis = genesis

	block, err := state.LoadBlock(db)
	if err != nil {
		return nil, fmt.Errorf("load block info: %w", err)
	}
	n.height = block.Height

	logger.Info().
		Str("chain_id", genesis.ChainID).
		Str("network", string(cfg.Network)).
		Uint64("height", n.height).
		Msg("Ledger ready")

	return n, nil
}

// setupLedger initializes the ledger from genesis when the database is
// empty. Otherwise it returns the stored genesis, after checking that an
// explicitly configured genesis file matches it.
func (n *Node) setupLedger() (*config.Genesis, error) {
	initialized, err := state.HasConfig(n.db)
	if err != nil {
		return nil, fmt.Errorf("check ledger state: %w", err)
	}

	var configured *config.Genesis
	if n.cfg.GenesisFile != "" {
		configured, err = config.LoadGenesis(expandHome(n.cfg.GenesisFile))
		if err != nil {
			return nil, err
		}
	}

	if !initialized {
		g := configured
		if g == nil {
			g = config.GenesisFor(n.cfg.Network)
			n.logger.Warn().Msg("No genesis file configured; using built-in genesis")
		}
		if err := n.initLedger(g); err != nil {
			return nil, err
		}
		return g, nil
	}

	stored, err := n.storedGenesis()
	if err != nil {
		return nil, err
	}
	if configured != nil {
		want, err := stored.Hash()
		if err != nil {
			return nil, err
		}
		got, err := configured.Hash()
		if err != nil {
			return nil, err
		}
		if want != got {
			return nil, fmt.Errorf("%w: ledger %s, file %s", ErrGenesisMismatch, want, got)
		}
	}
	n.logger.Info().Msg("Ledger resumed from database")
	return stored, nil
}

// initLedger stores g and then initializes the ledger from it. The genesis
// is written first: until Init commits the ledger counts as empty, so an
// interrupted start is redone on the next one.
func (n *Node) initLedger(g *config.Genesis) error {
	env, msg, err := genesisInitMsg(g)
	if err != nil {
		return fmt.Errorf("convert genesis: %w", err)
	}

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode genesis: %w", err)
	}
	if err := n.meta.Put(genesisKey, data); err != nil {
		return fmt.Errorf("store genesis: %w", err)
	}

	if err := n.ledger.Init(env, msg); err != nil {
		return fmt.Errorf("init from genesis: %w", err)
	}
	n.logger.Info().Int("tokens", len(g.InitialTokens)).Msg("Ledger initialized from genesis")
	return nil
}

func (n *Node) storedGenesis() (*config.Genesis, error) {
	data, err := n.meta.Get(genesisKey)
	if err != nil {
		return nil, fmt.Errorf("load stored genesis: %w", err)
	}
	var g config.Genesis
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode stored genesis: %w", err)
	}
	return &g, nil
}

// Start launches the RPC server when enabled.
func (n *Node) Start() error {
	if !n.cfg.RPC.Enabled {
		n.logger.Warn().Msg("RPC disabled by config")
		return nil
	}

	rpcAddr := fmt.Sprintf("%s:%d", n.cfg.RPC.Addr, n.cfg.RPC.Port)
	n.rpcServer = rpc.New(rpcAddr, n, n.cfg.Network, n.genesis.ChainID, n.cfg.RPC)
	if err := n.rpcServer.Start(); err != nil {
		n.rpcServer = nil
		return fmt.Errorf("start RPC at %s: %w", rpcAddr, err)
	}
	n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")

	n.logger.Info().
		Uint64("height", n.Height()).
		Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Error().Err(err).Msg("RPC shutdown")
		}
	}

	// Wait for an in-flight execute before closing the database.
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.db != nil {
		n.db.Close()
		n.db = nil
	}

	n.logger.Info().Msg("Goodbye!")
}

// Execute applies one signed request from sender in a new block. nonce
// must be the sender's next nonce.
func (n *Node) Execute(sender types.Address, nonce uint64, msg contract.ExecuteMsg) (*contract.Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	block := state.BlockInfo{Height: n.height + 1, Time: uint64(n.now().Unix())}
	resp, err := n.ledger.Execute(contract.Env{Sender: sender, Block: block, Nonce: &nonce}, msg)
	if err != nil {
		return nil, err
	}
	n.height = block.Height
	n.logger.Debug().
		Str("sender", sender.String()).
		Uint64("height", block.Height).
		Int("messages", len(resp.Messages)).
		Msg("Request applied")
	return resp, nil
}

// Query answers a read-only request.
func (n *Node) Query(msg contract.QueryMsg) (*contract.QueryAnswer, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledger.Query(msg)
}

// Nonce returns the nonce addr's next signed request must carry.
func (n *Node) Nonce(addr types.Address) (uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledger.Nonce(addr)
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Height returns the height of the last applied request.
func (n *Node) Height() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

// Genesis returns the genesis the ledger was created with.
func (n *Node) Genesis() *config.Genesis {
	return n.genesis
}
