package nearrpc

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if len(e.Data) > 0 {
		return e.Message + ": " + string(e.Data)
	}
	return e.Message
}

// action is the tagged union of the two action kinds this tool issues.
// Exactly one field is set.
type action struct {
	FunctionCall *functionCall   `json:"FunctionCall,omitempty"`
	Transfer     *transferAction `json:"Transfer,omitempty"`
}

type functionCall struct {
	MethodName string `json:"method_name"`
	ArgsBase64 string `json:"args_base64"`
	Gas        uint64 `json:"gas"`
	Deposit    string `json:"deposit"`
}

type transferAction struct {
	Deposit string `json:"deposit"`
}

// transaction is the canonical payload that gets digested and signed.
type transaction struct {
	SignerID   string `json:"signer_id"`
	PublicKey  string `json:"public_key"`
	Nonce      uint64 `json:"nonce"`
	ReceiverID string `json:"receiver_id"`
	Action     action `json:"action"`
}

// signedTransaction is the broadcast_tx_commit parameter shape.
type signedTransaction struct {
	Transaction transaction `json:"transaction"`
	Signature   string      `json:"signature"`
}

// executionStatus reports how the contract handled a transaction. Exactly
// one of the fields is set.
type executionStatus struct {
	SuccessValue *string         `json:"SuccessValue,omitempty"`
	Failure      json.RawMessage `json:"Failure,omitempty"`
}

// executionResult is the broadcast_tx_commit result shape.
type executionResult struct {
	TransactionHash string          `json:"transaction_hash"`
	Status          executionStatus `json:"status"`
}

// viewRequest is the params shape for read-only query calls.
type viewRequest struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name,omitempty"`
	ArgsBase64  string `json:"args_base64,omitempty"`
}

// viewResult carries the base64-encoded JSON returned by a view method.
type viewResult struct {
	Result []byte `json:"result"`
}

// accountView is the view_account result shape; Amount is the native balance
// in minor units.
type accountView struct {
	Amount string `json:"amount"`
}

// CallResources bounds the gas and attached deposit for one state-changing
// call.
type CallResources struct {
	Gas     uint64
	Deposit decimal.Decimal
}

// CallOutcome is the observable result of a committed transaction.
type CallOutcome struct {
	TxHash       string
	SuccessValue []byte
}
