package rpc

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/receiver"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000

	// Ledger errors.
	CodeExecutionFailed = -32010
	CodeQueryFailed     = -32011
	CodeBadSignature    = -32012
	CodeBadNonce        = -32013
)

// ExecuteDomain separates ledger_execute signatures from any other use of
// the same key.
const ExecuteDomain = "ledger_execute"

// executeDomain binds a signature to one ledger.
func executeDomain(chainID string) string {
	return ExecuteDomain + ":" + chainID
}

// signedBytes is the message a ledger_execute signature covers: the
// big-endian nonce followed by the payload.
func signedBytes(nonce uint64, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(out, nonce)
	copy(out[8:], payload)
	return out
}

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// ExecuteParam is a signed ledger_execute request. Payload is the JSON
// text of the request message, signed as-is so no re-encoding can alter
// what the signer saw. Nonce is the sender's next nonce.
type ExecuteParam struct {
	Payload   string `json:"payload"`
	Nonce     uint64 `json:"nonce"`
	PublicKey string `json:"public_key"` // Compressed secp256k1, hex.
	Signature string `json:"signature"`  // Schnorr, hex.
}

// NonceParam is the parameter for ledger_getNonce.
type NonceParam struct {
	Address types.Address `json:"address"`
}

// ── Result types ────────────────────────────────────────────────────────

// ExecuteResult is returned by ledger_execute. Data is the space-padded
// JSON answer.
type ExecuteResult struct {
	Sender   types.Address      `json:"sender"`
	Data     string             `json:"data"`
	Messages []receiver.Message `json:"messages"`
}

// NonceResult is returned by ledger_getNonce.
type NonceResult struct {
	Address types.Address `json:"address"`
	Nonce   uint64        `json:"nonce"`
}

// NodeInfoResult is returned by node_getInfo.
type NodeInfoResult struct {
	Network string          `json:"network"`
	ChainID string          `json:"chain_id"`
	Block   state.BlockInfo `json:"block"`
	TxCount uint64          `json:"tx_cnt"`
	Uptime  int64           `json:"uptime"` // Seconds.
}

// SignExecute encodes msg and signs it with key for the ledger chainID,
// producing the params of a ledger_execute call.
func SignExecute(key *crypto.PrivateKey, chainID string, nonce uint64, msg contract.ExecuteMsg) (*ExecuteParam, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	sig, err := key.SignMessage(executeDomain(chainID), signedBytes(nonce, payload))
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return &ExecuteParam{
		Payload:   string(payload),
		Nonce:     nonce,
		PublicKey: hex.EncodeToString(key.PublicKey()),
		Signature: hex.EncodeToString(sig),
	}, nil
}
