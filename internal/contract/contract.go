// Package contract implements the ledger's state transitions: minting,
// burning, transferring, permission grants and viewing keys.
//
// Each Execute runs against a write-buffering overlay of the database. The
// overlay is committed in one batch when the request succeeds and dropped
// when it fails, so a request either applies completely or not at all.
// Contract does not lock; callers serialize Init and Execute.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/history"
	"github.com/Klingon-tech/klingnet-mtl/internal/ledger"
	"github.com/Klingon-tech/klingnet-mtl/internal/log"
	"github.com/Klingon-tech/klingnet-mtl/internal/permission"
	"github.com/Klingon-tech/klingnet-mtl/internal/receiver"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/internal/viewkey"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// ResponseBlockSize is the padding granularity of response data.
const ResponseBlockSize = 256

// Contract errors.
var (
	ErrUnknownToken          = errors.New("token_id does not exist")
	ErrNoTokenOrNoPermission = errors.New("these tokens do not exist or you have no permission to transfer")
	ErrNotAuthorized         = permission.ErrNotAuthorized
	ErrInvalidUniqueMint     = errors.New("unique token must be minted as exactly one unit to one address")
	ErrBurnDisabled          = errors.New("burn is not enabled for this token_id")
	ErrAlreadyInitialized    = errors.New("ledger already initialized")
	ErrInvalidMessage        = errors.New("message must set exactly one variant")
)

// Contract executes requests against a database.
type Contract struct {
	db storage.DB
}

// New creates a contract over db.
func New(db storage.DB) *Contract {
	return &Contract{db: db}
}

// unit is the set of stores for one request, all writing to one overlay.
type unit struct {
	cache     *storage.Cache
	cfg       *state.Config
	tokens    *token.Registry
	ledger    *ledger.Ledger
	perms     *permission.Engine
	history   *history.Recorder
	keys      *viewkey.Gate
	receivers *receiver.Registry
}

func newUnit(db storage.DB, cfg *state.Config) *unit {
	cache := storage.NewCache(db)
	return &unit{
		cache:     cache,
		cfg:       cfg,
		tokens:    token.NewRegistry(cache),
		ledger:    ledger.New(cache),
		perms:     permission.NewEngine(cache),
		history:   history.NewRecorder(cache),
		keys:      viewkey.NewGate(cache),
		receivers: receiver.NewRegistry(cache),
	}
}

// commit writes block info and config into the overlay, then flushes it.
func (u *unit) commit(block state.BlockInfo) error {
	if err := state.SaveBlock(u.cache, block); err != nil {
		return err
	}
	if err := state.SaveConfig(u.cache, u.cfg); err != nil {
		return err
	}
	if err := u.cache.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Init creates the ledger configuration and mints the initial tokens.
// The admin is msg.Admin, or the sender when HasAdmin is set without one,
// or nobody.
func (c *Contract) Init(env Env, msg InitMsg) error {
	initialized, err := state.HasConfig(c.db)
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	cfg := &state.Config{PRNGSeed: state.DeriveSeed([]byte(msg.Entropy))}
	if msg.HasAdmin {
		admin := env.Sender
		if msg.Admin != nil {
			admin = *msg.Admin
		}
		cfg.Admin = &admin
	}
	cfg.AddMinters(msg.Minters)
	if cfg.Minters == nil {
		cfg.Minters = []types.Address{}
	}

	u := newUnit(c.db, cfg)
	for _, t := range msg.InitialTokens {
		if err := u.mintTokenID(env, t, ""); err != nil {
			return err
		}
	}
	if err := u.commit(env.Block); err != nil {
		return err
	}

	log.Ledger.Info().
		Int("tokens", len(msg.InitialTokens)).
		Int("minters", len(cfg.Minters)).
		Bool("admin", cfg.Admin != nil).
		Uint64("tx_cnt", cfg.TxCount).
		Msg("Ledger initialized")
	return nil
}

// Execute runs one request. On error nothing is written, except that a
// request carrying a nonce consumes it once the nonce itself was valid.
func (c *Contract) Execute(env Env, msg ExecuteMsg) (*Response, error) {
	if n := msg.variants(); n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMessage, n)
	}
	cfg, err := state.LoadConfig(c.db)
	if err != nil {
		return nil, err
	}

	u := newUnit(c.db, cfg)
	if env.Nonce != nil {
		if err := state.UseNonce(u.cache, env.Sender, *env.Nonce); err != nil {
			u.cache.Discard()
			return nil, err
		}
	}
	resp, err := u.dispatch(env, msg)
	if err != nil {
		u.cache.Discard()
		l := log.WithSender(env.Sender.String())
		l.Debug().Err(err).Msg("Execute rejected")
		if env.Nonce != nil {
			c.spendNonce(env)
		}
		return nil, err
	}
	if err := u.commit(env.Block); err != nil {
		return nil, err
	}
	return resp, nil
}

// spendNonce advances the sender's nonce past a rejected request, so the
// same signed request cannot succeed later.
func (c *Contract) spendNonce(env Env) {
	spent := storage.NewCache(c.db)
	err := state.UseNonce(spent, env.Sender, *env.Nonce)
	if err == nil {
		err = spent.Commit()
	}
	if err != nil {
		log.Ledger.Error().Err(err).Str("sender", env.Sender.String()).Msg("Spend nonce")
	}
}

func (u *unit) dispatch(env Env, msg ExecuteMsg) (*Response, error) {
	var (
		answer   HandleAnswer
		messages []receiver.Message
		err      error
	)
	ok := &StatusAnswer{Status: Success}

	switch {
	case msg.MintTokenIDs != nil:
		err = u.mintTokenIDs(env, msg.MintTokenIDs)
		answer.MintTokenIDs = ok
	case msg.MintTokens != nil:
		err = u.mintTokens(env, msg.MintTokens)
		answer.MintTokens = ok
	case msg.BurnTokens != nil:
		err = u.burnTokens(env, msg.BurnTokens)
		answer.BurnTokens = ok
	case msg.Transfer != nil:
		t := msg.Transfer
		err = u.transfer(env, t.TokenID, t.From, t.Recipient, t.Amount, t.Memo)
		answer.Transfer = ok
	case msg.Send != nil:
		messages, err = u.send(env, msg.Send)
		answer.Send = ok
	case msg.GivePermission != nil:
		err = u.givePermission(env, msg.GivePermission)
		answer.GivePermission = ok
	case msg.RegisterReceive != nil:
		err = u.receivers.Register(env.Sender, msg.RegisterReceive.CodeHash)
		answer.RegisterReceive = ok
	case msg.CreateViewingKey != nil:
		var key string
		key, err = u.createViewingKey(env, msg.CreateViewingKey.Entropy)
		answer.CreateViewingKey = &ViewingKeyAnswer{Key: key}
	case msg.SetViewingKey != nil:
		err = u.keys.Set(env.Sender, msg.SetViewingKey.Key)
		answer.SetViewingKey = ok
	case msg.AddMinters != nil:
		err = u.changeMinters(env, msg.AddMinters, true)
		answer.AddMinters = ok
	case msg.RemoveMinters != nil:
		err = u.changeMinters(env, msg.RemoveMinters, false)
		answer.RemoveMinters = ok
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("answer marshal: %w", err)
	}
	if messages == nil {
		messages = []receiver.Message{}
	}
	return &Response{Messages: messages, Data: padResponse(data)}, nil
}

func (m *ExecuteMsg) variants() int {
	n := 0
	for _, set := range []bool{
		m.MintTokenIDs != nil, m.MintTokens != nil, m.BurnTokens != nil,
		m.Transfer != nil, m.Send != nil, m.GivePermission != nil,
		m.RegisterReceive != nil, m.CreateViewingKey != nil, m.SetViewingKey != nil,
		m.AddMinters != nil, m.RemoveMinters != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// padResponse appends spaces up to the next multiple of ResponseBlockSize.
func padResponse(data []byte) []byte {
	surplus := len(data) % ResponseBlockSize
	if surplus == 0 {
		return data
	}
	for i := 0; i < ResponseBlockSize-surplus; i++ {
		data = append(data, ' ')
	}
	return data
}
