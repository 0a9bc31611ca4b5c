// Package nearrpc is the JSON-RPC client for the ledger node hosting the
// betting and fungible-token contracts. It performs exactly one remote call
// per invocation; retry policy lives with the caller.
package nearrpc

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/metrics"
)

// Client talks JSON-RPC to a single node. A shared rate limiter paces all
// outbound requests below the node's throttling threshold.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics

	reqID atomic.Int64

	// Per-account monotonic nonces, seeded from the wall clock so a fresh
	// process never replays a previous run's sequence.
	noncesMu sync.Mutex
	nonces   map[string]*atomic.Uint64
}

// New creates a Client for the node at rpcURL, pacing requests at
// requestsPerSecond. metrics may be nil.
func New(rpcURL string, requestsPerSecond float64, m *metrics.Metrics) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &Client{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		metrics: m,
		nonces:  make(map[string]*atomic.Uint64),
	}
}

// Call signs and commits one state-changing function call as cred, attaching
// the given gas and deposit. Contract-level failure, RPC-level rejection, and
// network faults all surface wrapping domain.ErrRemoteCall.
func (c *Client) Call(ctx context.Context, cred domain.Credential, receiver, method string, args any, res CallResources) (CallOutcome, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return CallOutcome{}, fmt.Errorf("nearrpc: marshal args for %s: %w", method, err)
	}

	deposit := res.Deposit
	if deposit.IsZero() {
		deposit = decimal.Zero
	}
	act := action{FunctionCall: &functionCall{
		MethodName: method,
		ArgsBase64: base64.StdEncoding.EncodeToString(argsJSON),
		Gas:        res.Gas,
		Deposit:    deposit.String(),
	}}
	return c.commit(ctx, cred, receiver, method, act)
}

// Transfer commits a native-currency transfer of amount minor units.
func (c *Client) Transfer(ctx context.Context, cred domain.Credential, receiver string, amount decimal.Decimal) (CallOutcome, error) {
	act := action{Transfer: &transferAction{Deposit: amount.String()}}
	return c.commit(ctx, cred, receiver, "transfer", act)
}

// commit signs the canonical transaction payload and broadcasts it.
func (c *Client) commit(ctx context.Context, cred domain.Credential, receiver, label string, act action) (CallOutcome, error) {
	tx := transaction{
		SignerID:   cred.AccountID,
		PublicKey:  cred.PublicKeyString(),
		Nonce:      c.nextNonce(cred.AccountID),
		ReceiverID: receiver,
		Action:     act,
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return CallOutcome{}, fmt.Errorf("nearrpc: marshal transaction for %s: %w", label, err)
	}
	digest := blake2b.Sum256(payload)
	sig := ed25519.Sign(cred.SecretKey, digest[:])

	signed := signedTransaction{
		Transaction: tx,
		Signature:   base64.StdEncoding.EncodeToString(sig),
	}

	raw, err := c.doRPC(ctx, label, "broadcast_tx_commit", signed)
	if err != nil {
		return CallOutcome{}, err
	}

	var result executionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return CallOutcome{}, fmt.Errorf("nearrpc: %s on %s: decode result: %w", label, receiver, err)
	}
	if len(result.Status.Failure) > 0 {
		return CallOutcome{}, fmt.Errorf("nearrpc: %s on %s rejected: %s: %w",
			label, receiver, string(result.Status.Failure), domain.ErrRemoteCall)
	}

	outcome := CallOutcome{TxHash: result.TransactionHash}
	if result.Status.SuccessValue != nil && *result.Status.SuccessValue != "" {
		value, err := base64.StdEncoding.DecodeString(*result.Status.SuccessValue)
		if err != nil {
			return CallOutcome{}, fmt.Errorf("nearrpc: %s on %s: decode success value: %w", label, receiver, err)
		}
		outcome.SuccessValue = value
	}
	return outcome, nil
}

// View performs one read-only contract query and decodes the base64 JSON
// result into out.
func (c *Client) View(ctx context.Context, receiver, method string, args, out any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("nearrpc: marshal view args for %s: %w", method, err)
	}

	params := viewRequest{
		RequestType: "call_function",
		Finality:    "final",
		AccountID:   receiver,
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(argsJSON),
	}
	raw, err := c.doRPC(ctx, method, "query", params)
	if err != nil {
		return err
	}

	var result viewResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("nearrpc: view %s on %s: decode envelope: %w", method, receiver, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result.Result, out); err != nil {
		return fmt.Errorf("nearrpc: view %s on %s: decode result: %w", method, receiver, err)
	}
	return nil
}

// ViewAccount returns the native balance of an account in minor units.
func (c *Client) ViewAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	params := viewRequest{
		RequestType: "view_account",
		Finality:    "final",
		AccountID:   accountID,
	}
	raw, err := c.doRPC(ctx, "view_account", "query", params)
	if err != nil {
		return decimal.Zero, err
	}

	var view accountView
	if err := json.Unmarshal(raw, &view); err != nil {
		return decimal.Zero, fmt.Errorf("nearrpc: view account %s: decode: %w", accountID, err)
	}
	amount, err := decimal.NewFromString(view.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("nearrpc: view account %s: parse amount %q: %w", accountID, view.Amount, err)
	}
	return amount, nil
}

// nextNonce returns a fresh monotonic nonce for the account.
func (c *Client) nextNonce(accountID string) uint64 {
	c.noncesMu.Lock()
	counter, ok := c.nonces[accountID]
	if !ok {
		counter = &atomic.Uint64{}
		counter.Store(uint64(time.Now().UnixNano()))
		c.nonces[accountID] = counter
	}
	c.noncesMu.Unlock()
	return counter.Add(1)
}

// doRPC sends one JSON-RPC request and returns the raw result. contractMethod
// labels the latency metric; rpcMethod is the wire-level method name.
func (c *Client) doRPC(ctx context.Context, contractMethod, rpcMethod string, params any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nearrpc: rate limiter: %w", err)
	}

	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		ID:      c.reqID.Add(1),
		Method:  rpcMethod,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("nearrpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nearrpc: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveRPC(contractMethod, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("nearrpc: %s: %v: %w", contractMethod, err, domain.ErrRemoteCall)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nearrpc: %s: read response: %v: %w", contractMethod, err, domain.ErrRemoteCall)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nearrpc: %s: HTTP %d: %s: %w", contractMethod, resp.StatusCode, string(respBody), domain.ErrRemoteCall)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("nearrpc: %s: decode response: %w", contractMethod, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("nearrpc: %s: %v: %w", contractMethod, rpcResp.Error, domain.ErrRemoteCall)
	}
	return rpcResp.Result, nil
}
