// Package rpcclient provides a JSON-RPC 2.0 client for ledger nodes.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/rpc"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mtl/pkg/types"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// Execute signs msg with signer under the signer's next nonce and the
// node's chain ID, and submits it through ledger_execute.
func (c *Client) Execute(signer *crypto.PrivateKey, msg contract.ExecuteMsg) (*rpc.ExecuteResult, error) {
	info, err := c.NodeInfo()
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	nonce, err := c.Nonce(signer.Address())
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	params, err := rpc.SignExecute(signer, info.ChainID, nonce, msg)
	if err != nil {
		return nil, err
	}
	var result rpc.ExecuteResult
	if err := c.Call("ledger_execute", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Nonce returns the nonce addr's next signed request must carry.
func (c *Client) Nonce(addr types.Address) (uint64, error) {
	var result rpc.NonceResult
	if err := c.Call("ledger_getNonce", rpc.NonceParam{Address: addr}, &result); err != nil {
		return 0, err
	}
	return result.Nonce, nil
}

// Query runs a read-only ledger query.
func (c *Client) Query(msg contract.QueryMsg) (*contract.QueryAnswer, error) {
	var answer contract.QueryAnswer
	if err := c.Call("ledger_query", msg, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// NodeInfo returns the node's network and ledger position.
func (c *Client) NodeInfo() (*rpc.NodeInfoResult, error) {
	var result rpc.NodeInfoResult
	if err := c.Call("node_getInfo", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
