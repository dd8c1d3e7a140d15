package rpc

import (
	"encoding/json"
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
)

// FuzzRPCRequestUnmarshal tests that arbitrary JSON does not panic
// when parsed as a JSON-RPC 2.0 request.
func FuzzRPCRequestUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"node_getInfo","params":null,"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"ledger_query","params":{"contract_info":{}},"id":"test"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":[]}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"ledger_execute","params":[1,2,3],"id":999}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		_ = req.Method
		_ = req.ID
	})
}

// FuzzExecutePayload tests that arbitrary payloads do not panic when
// decoded as a request message.
func FuzzExecutePayload(f *testing.F) {
	f.Add([]byte(`{"transfer":{"token_id":"a","amount":"5"}}`))
	f.Add([]byte(`{"mint_tokens":{"mint_tokens":[{"token_id":"a","balances":[]}]}}`))
	f.Add([]byte(`{"set_viewing_key":{"key":""}}`))
	f.Add([]byte(`{"transfer":{"amount":"340282366920938463463374607431768211456"}}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var msg contract.ExecuteMsg
		_ = json.Unmarshal(data, &msg)
	})
}
