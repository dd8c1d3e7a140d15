package contract

import (
	"github.com/Klingon-tech/klingnet-mtl/internal/history"
	"github.com/Klingon-tech/klingnet-mtl/internal/permission"
	"github.com/Klingon-tech/klingnet-mtl/internal/receiver"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/internal/token"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// Env is the context a request executes under. Sender is already
// authenticated by the host. A non-nil Nonce must equal the sender's next
// nonce; hosts that accept signed requests set it so a request runs once.
type Env struct {
	Sender types.Address   `json:"sender"`
	Block  state.BlockInfo `json:"block"`
	Nonce  *uint64         `json:"nonce,omitempty"`
}

// Balance is an amount held by, or moved for, one address.
type Balance struct {
	Address types.Address `json:"address"`
	Amount  types.Amount  `json:"amount"`
}

// TokenAmount groups balances of one token.
type TokenAmount struct {
	TokenID  string    `json:"token_id"`
	Balances []Balance `json:"balances"`
}

// MintTokenID creates a token with its initial balances.
type MintTokenID struct {
	TokenInfo token.Info `json:"token_info"`
	Balances  []Balance  `json:"balances"`
}

// InitMsg configures a new ledger.
type InitMsg struct {
	HasAdmin      bool            `json:"has_admin"`
	Admin         *types.Address  `json:"admin,omitempty"`
	Minters       []types.Address `json:"minters"`
	Entropy       string          `json:"entropy"`
	InitialTokens []MintTokenID   `json:"initial_tokens"`
}

// ExecuteMsg is a mutating request. Exactly one field is set.
type ExecuteMsg struct {
	MintTokenIDs     *MintTokenIDs     `json:"mint_token_ids,omitempty"`
	MintTokens       *MintTokens       `json:"mint_tokens,omitempty"`
	BurnTokens       *BurnTokens       `json:"burn_tokens,omitempty"`
	Transfer         *Transfer         `json:"transfer,omitempty"`
	Send             *Send             `json:"send,omitempty"`
	GivePermission   *GivePermission   `json:"give_permission,omitempty"`
	RegisterReceive  *RegisterReceive  `json:"register_receive,omitempty"`
	CreateViewingKey *CreateViewingKey `json:"create_viewing_key,omitempty"`
	SetViewingKey    *SetViewingKey    `json:"set_viewing_key,omitempty"`
	AddMinters       *Minters          `json:"add_minters,omitempty"`
	RemoveMinters    *Minters          `json:"remove_minters,omitempty"`
}

// MintTokenIDs creates new tokens. Padding is ignored; clients fill it to
// hide the message length, here and in the other requests.
type MintTokenIDs struct {
	InitialTokens []MintTokenID `json:"initial_tokens"`
	Memo          string        `json:"memo,omitempty"`
	Padding       string        `json:"padding,omitempty"`
}

// MintTokens credits more of existing fungible tokens.
type MintTokens struct {
	MintTokens []TokenAmount `json:"mint_tokens"`
	Memo       string        `json:"memo,omitempty"`
	Padding    string        `json:"padding,omitempty"`
}

// BurnTokens destroys the sender's own balances.
type BurnTokens struct {
	BurnTokens []TokenAmount `json:"burn_tokens"`
	Memo       string        `json:"memo,omitempty"`
	Padding    string        `json:"padding,omitempty"`
}

// Transfer moves tokens from From, which is the sender or a delegating owner.
type Transfer struct {
	TokenID   string        `json:"token_id"`
	From      types.Address `json:"from"`
	Recipient types.Address `json:"recipient"`
	Amount    types.Amount  `json:"amount"`
	Memo      string        `json:"memo,omitempty"`
	Padding   string        `json:"padding,omitempty"`
}

// Send is a Transfer that also notifies the recipient.
type Send struct {
	TokenID           string        `json:"token_id"`
	From              types.Address `json:"from"`
	Recipient         types.Address `json:"recipient"`
	RecipientCodeHash string        `json:"recipient_code_hash,omitempty"`
	Amount            types.Amount  `json:"amount"`
	Msg               []byte        `json:"msg,omitempty"`
	Memo              string        `json:"memo,omitempty"`
	Padding           string        `json:"padding,omitempty"`
}

// GivePermission updates the fields it sets on Address's permission over
// the sender's TokenID.
type GivePermission struct {
	Address             types.Address `json:"address"`
	TokenID             string        `json:"token_id"`
	ViewOwner           *bool         `json:"view_owner,omitempty"`
	ViewPrivateMetadata *bool         `json:"view_private_metadata,omitempty"`
	Transfer            *types.Amount `json:"transfer,omitempty"`
	Padding             string        `json:"padding,omitempty"`
}

// RegisterReceive sets the code hash the sender is notified with.
type RegisterReceive struct {
	CodeHash string `json:"code_hash"`
	Padding  string `json:"padding,omitempty"`
}

// CreateViewingKey generates and stores a new viewing key for the sender.
type CreateViewingKey struct {
	Entropy string `json:"entropy"`
	Padding string `json:"padding,omitempty"`
}

// SetViewingKey stores a caller-chosen viewing key for the sender.
type SetViewingKey struct {
	Key     string `json:"key"`
	Padding string `json:"padding,omitempty"`
}

// Minters is the argument of AddMinters and RemoveMinters.
type Minters struct {
	Minters []types.Address `json:"minters"`
	Padding string          `json:"padding,omitempty"`
}

// Status is the result marker of handles that return no data.
type Status string

// Success is the only status; failures are errors.
const Success Status = "success"

// StatusAnswer is returned by handles without other data.
type StatusAnswer struct {
	Status Status `json:"status"`
}

// ViewingKeyAnswer carries a key made by CreateViewingKey.
type ViewingKeyAnswer struct {
	Key string `json:"key"`
}

// HandleAnswer is the data returned by Execute. The field matches the
// request's variant.
type HandleAnswer struct {
	MintTokenIDs     *StatusAnswer     `json:"mint_token_ids,omitempty"`
	MintTokens       *StatusAnswer     `json:"mint_tokens,omitempty"`
	BurnTokens       *StatusAnswer     `json:"burn_tokens,omitempty"`
	Transfer         *StatusAnswer     `json:"transfer,omitempty"`
	Send             *StatusAnswer     `json:"send,omitempty"`
	GivePermission   *StatusAnswer     `json:"give_permission,omitempty"`
	RegisterReceive  *StatusAnswer     `json:"register_receive,omitempty"`
	CreateViewingKey *ViewingKeyAnswer `json:"create_viewing_key,omitempty"`
	SetViewingKey    *StatusAnswer     `json:"set_viewing_key,omitempty"`
	AddMinters       *StatusAnswer     `json:"add_minters,omitempty"`
	RemoveMinters    *StatusAnswer     `json:"remove_minters,omitempty"`
}

// Response is the result of a successful Execute. Data is the JSON
// HandleAnswer, space-padded to a multiple of ResponseBlockSize.
type Response struct {
	Messages []receiver.Message `json:"messages"`
	Data     []byte             `json:"data"`
}

// QueryMsg is a read-only request. Exactly one field is set.
type QueryMsg struct {
	ContractInfo    *ContractInfoQuery    `json:"contract_info,omitempty"`
	Balance         *BalanceQuery         `json:"balance,omitempty"`
	TransferHistory *TransferHistoryQuery `json:"transfer_history,omitempty"`
	Permission      *PermissionQuery      `json:"permission,omitempty"`
}

// ContractInfoQuery asks for the public ledger configuration.
type ContractInfoQuery struct{}

// BalanceQuery asks for Address's balance of TokenID.
type BalanceQuery struct {
	Address types.Address `json:"address"`
	Key     string        `json:"key"`
	TokenID string        `json:"token_id"`
}

// TransferHistoryQuery asks for a page of Address's transfers, newest first.
type TransferHistoryQuery struct {
	Address  types.Address `json:"address"`
	Key      string        `json:"key"`
	Page     uint32        `json:"page,omitempty"`
	PageSize uint32        `json:"page_size"`
}

// PermissionQuery asks for the permission Owner gave PermAddress. Either
// party's viewing key is accepted.
type PermissionQuery struct {
	Owner       types.Address `json:"owner"`
	PermAddress types.Address `json:"perm_address"`
	Key         string        `json:"key"`
	TokenID     string        `json:"token_id"`
}

// QueryAnswer is the result of a query. ViewingKeyError is set instead of
// the requested field when authentication fails.
type QueryAnswer struct {
	ContractInfo    *ContractInfoAnswer    `json:"contract_info,omitempty"`
	Balance         *BalanceAnswer         `json:"balance,omitempty"`
	TransferHistory *TransferHistoryAnswer `json:"transfer_history,omitempty"`
	Permission      *permission.Permission `json:"permission,omitempty"`
	ViewingKeyError *ViewingKeyError       `json:"viewing_key_error,omitempty"`
}

// ContractInfoAnswer is the public ledger configuration.
type ContractInfoAnswer struct {
	Admin   *types.Address  `json:"admin,omitempty"`
	Minters []types.Address `json:"minters"`
	TxCount uint64          `json:"tx_cnt"`
	Block   state.BlockInfo `json:"block"`
}

// BalanceAnswer is the answer to BalanceQuery.
type BalanceAnswer struct {
	Amount types.Amount `json:"amount"`
}

// TransferHistoryAnswer holds one page and the total number of transfers.
type TransferHistoryAnswer struct {
	Txs   []history.Tx `json:"txs"`
	Total uint64       `json:"total"`
}

// ViewingKeyError is the single answer to a failed viewing-key check.
type ViewingKeyError struct {
	Msg string `json:"msg"`
}
