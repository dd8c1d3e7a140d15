package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/Klingon-tech/klingnet-mtl/internal/contract"
	"github.com/Klingon-tech/klingnet-mtl/internal/history"
	"github.com/Klingon-tech/klingnet-mtl/internal/receiver"
	"github.com/Klingon-tech/klingnet-mtl/internal/state"
	"github.com/Klingon-tech/klingnet-mtl/pkg/crypto"
)

func (s *Server) handleLedgerExecute(req *Request) (interface{}, *Error) {
	var params ExecuteParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Payload == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "payload is required"}
	}

	pubKey, err := hex.DecodeString(params.PublicKey)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid public_key: must be hex"}
	}
	sig, err := hex.DecodeString(params.Signature)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid signature: must be hex"}
	}

	payload := []byte(params.Payload)
	sender, ok := crypto.VerifyMessage(executeDomain(s.chainID), signedBytes(params.Nonce, payload), sig, pubKey)
	if !ok {
		return nil, &Error{Code: CodeBadSignature, Message: "signature verification failed"}
	}

	var msg contract.ExecuteMsg
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid payload: " + err.Error()}
	}

	resp, err := s.backend.Execute(sender, params.Nonce, msg)
	if err != nil {
		s.logger.Debug().Err(err).Str("sender", sender.String()).Msg("Execute failed")
		return nil, executionError(err)
	}

	messages := resp.Messages
	if messages == nil {
		messages = []receiver.Message{}
	}
	return &ExecuteResult{
		Sender:   sender,
		Data:     string(resp.Data),
		Messages: messages,
	}, nil
}

func (s *Server) handleLedgerQuery(req *Request) (interface{}, *Error) {
	var msg contract.QueryMsg
	if err := parseParams(req, &msg); err != nil {
		return nil, err
	}

	answer, err := s.backend.Query(msg)
	if err != nil {
		code := CodeQueryFailed
		if errors.Is(err, contract.ErrInvalidMessage) || errors.Is(err, history.ErrInvalidPageSize) {
			code = CodeInvalidParams
		}
		return nil, &Error{Code: code, Message: err.Error()}
	}
	return answer, nil
}

func (s *Server) handleLedgerGetNonce(req *Request) (interface{}, *Error) {
	var params NonceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	nonce, err := s.backend.Nonce(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &NonceResult{Address: params.Address, Nonce: nonce}, nil
}

func (s *Server) handleNodeGetInfo(req *Request) (interface{}, *Error) {
	answer, err := s.backend.Query(contract.QueryMsg{ContractInfo: &contract.ContractInfoQuery{}})
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	info := answer.ContractInfo

	var uptime int64
	if !s.started.IsZero() {
		uptime = int64(time.Since(s.started).Seconds())
	}
	return &NodeInfoResult{
		Network: string(s.network),
		ChainID: s.chainID,
		Block:   info.Block,
		TxCount: info.TxCount,
		Uptime:  uptime,
	}, nil
}

// executionError maps a rejected request to a JSON-RPC error. The message
// is the ledger's error text.
func executionError(err error) *Error {
	switch {
	case errors.Is(err, contract.ErrInvalidMessage):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, state.ErrBadNonce):
		return &Error{Code: CodeBadNonce, Message: err.Error()}
	}
	return &Error{Code: CodeExecutionFailed, Message: err.Error()}
}
