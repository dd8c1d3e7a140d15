package contract

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/log"
	"github.com/Klingon-tech/klingnet-mtl/internal/permission"
	"github.com/Klingon-tech/klingnet-mtl/internal/receiver"
	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/internal/viewkey"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

func (u *unit) requireMinter(env Env) error {
	if !u.cfg.IsMinter(env.Sender) {
		return fmt.Errorf("%w: only minters are allowed to mint", ErrNotAuthorized)
	}
	return nil
}

func (u *unit) mintTokenIDs(env Env, msg *MintTokenIDs) error {
	if err := u.requireMinter(env); err != nil {
		return err
	}
	for _, t := range msg.InitialTokens {
		if err := u.mintTokenID(env, t, msg.Memo); err != nil {
			return err
		}
	}
	return nil
}

// mintTokenID creates a token and credits its initial balances. It does
// not check the sender; Init relies on that.
func (u *unit) mintTokenID(env Env, t MintTokenID, memo string) error {
	info := t.TokenInfo
	if info.IsUnique {
		if len(t.Balances) != 1 || !t.Balances[0].Amount.Eq(types.NewAmount(1)) {
			return fmt.Errorf("%w: %s", ErrInvalidUniqueMint, info.TokenID)
		}
	}
	if err := u.tokens.Create(&info); err != nil {
		return err
	}
	for _, b := range t.Balances {
		if err := u.ledger.MintInitial(info.TokenID, b.Address, b.Amount); err != nil {
			return err
		}
		if err := u.history.StoreMint(u.cfg, env.Block, info.TokenID, env.Sender, b.Address, b.Amount, memo); err != nil {
			return err
		}
	}
	log.Ledger.Debug().
		Str("token_id", info.TokenID).
		Bool("unique", info.IsUnique).
		Int("balances", len(t.Balances)).
		Msg("Token created")
	return nil
}

func (u *unit) mintTokens(env Env, msg *MintTokens) error {
	if err := u.requireMinter(env); err != nil {
		return err
	}
	for _, t := range msg.MintTokens {
		info, err := u.lookup(t.TokenID)
		if err != nil {
			return err
		}
		for _, b := range t.Balances {
			to := b.Address
			if err := u.ledger.ApplyDelta(t.TokenID, nil, &to, b.Amount, info); err != nil {
				return err
			}
			if err := u.history.StoreMint(u.cfg, env.Block, t.TokenID, env.Sender, to, b.Amount, msg.Memo); err != nil {
				return err
			}
		}
	}
	return nil
}

// burnTokens validates every entry before debiting any. Only owners burn.
func (u *unit) burnTokens(env Env, msg *BurnTokens) error {
	infos := make([]*token.Info, len(msg.BurnTokens))
	for i, t := range msg.BurnTokens {
		info, err := u.lookup(t.TokenID)
		if err != nil {
			return err
		}
		if !info.Config.EnableBurn {
			return fmt.Errorf("%w: %s", ErrBurnDisabled, t.TokenID)
		}
		for _, b := range t.Balances {
			if b.Address != env.Sender {
				return fmt.Errorf("%w: cannot burn %s tokens from address %s", ErrNotAuthorized, b.Amount, b.Address)
			}
		}
		infos[i] = info
	}

	for i, t := range msg.BurnTokens {
		for _, b := range t.Balances {
			owner := b.Address
			if err := u.ledger.ApplyDelta(t.TokenID, &owner, nil, b.Amount, infos[i]); err != nil {
				return err
			}
			if err := u.history.StoreBurn(u.cfg, env.Block, t.TokenID, nil, owner, b.Amount, msg.Memo); err != nil {
				return err
			}
		}
	}
	return nil
}

// transfer moves amount of tokenID from from to recipient on behalf of the
// sender. An unknown token and a missing grant give the same error.
func (u *unit) transfer(env Env, tokenID string, from, recipient types.Address, amount types.Amount, memo string) error {
	denied := false
	if from != env.Sender {
		err := u.perms.CheckAndConsume(from, env.Sender, tokenID, amount)
		switch {
		case errors.Is(err, permission.ErrNotAuthorized):
			denied = true
		case err != nil:
			return err
		}
	}

	info, err := u.tokens.Get(tokenID)
	switch {
	case errors.Is(err, token.ErrNotFound):
		denied = true
	case err != nil:
		return err
	}
	if denied {
		return ErrNoTokenOrNoPermission
	}

	if err := u.ledger.ApplyDelta(tokenID, &from, &recipient, amount, info); err != nil {
		return err
	}

	var sender *types.Address
	if env.Sender != from {
		s := env.Sender
		sender = &s
	}
	if err := u.history.StoreTransfer(u.cfg, env.Block, tokenID, from, sender, recipient, amount, memo); err != nil {
		return err
	}

	log.Ledger.Debug().
		Str("token_id", tokenID).
		Stringer("from", from).
		Stringer("to", recipient).
		Stringer("amount", amount).
		Msg("Transfer applied")
	return nil
}

// send transfers and then notifies the recipient when it has a code hash,
// either named in the request or registered earlier.
func (u *unit) send(env Env, msg *Send) ([]receiver.Message, error) {
	if err := u.transfer(env, msg.TokenID, msg.From, msg.Recipient, msg.Amount, msg.Memo); err != nil {
		return nil, err
	}

	codeHash := msg.RecipientCodeHash
	if codeHash == "" {
		registered, ok, err := u.receivers.CodeHash(msg.Recipient)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		codeHash = registered
	}

	note, err := receiver.NewReceiveMessage(msg.Recipient, codeHash, receiver.Receive{
		Sender:  env.Sender,
		TokenID: msg.TokenID,
		From:    msg.From,
		Amount:  msg.Amount,
		Memo:    msg.Memo,
		Msg:     msg.Msg,
	})
	if err != nil {
		return nil, err
	}
	return []receiver.Message{note}, nil
}

// givePermission never checks that the token exists.
func (u *unit) givePermission(env Env, msg *GivePermission) error {
	_, err := u.perms.Grant(env.Sender, msg.Address, msg.TokenID, permission.GrantOptions{
		ViewOwner:           msg.ViewOwner,
		ViewPrivateMetadata: msg.ViewPrivateMetadata,
		TransferAllowance:   msg.Transfer,
	})
	return err
}

func (u *unit) createViewingKey(env Env, entropy string) (string, error) {
	key := viewkey.Generate(u.cfg.PRNGSeed, env.Block, env.Sender, []byte(entropy))
	if err := u.keys.Set(env.Sender, key); err != nil {
		return "", err
	}
	return key, nil
}

func (u *unit) changeMinters(env Env, msg *Minters, add bool) error {
	if !u.cfg.IsAdmin(env.Sender) {
		return fmt.Errorf("%w: only the admin may change minters", ErrNotAuthorized)
	}
	if add {
		u.cfg.AddMinters(msg.Minters)
	} else {
		u.cfg.RemoveMinters(msg.Minters)
	}
	return nil
}

func (u *unit) lookup(tokenID string) (*token.Info, error) {
	info, err := u.tokens.Get(tokenID)
	if errors.Is(err, token.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, tokenID)
	}
	return info, err
}
