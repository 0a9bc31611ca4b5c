package nearrpc

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/signer"
)

// Gateway binds the RPC client to the credential pool: every Invoke picks
// the principal's next rotated credential and performs exactly one remote
// call with it.
type Gateway struct {
	client *Client
	pool   *signer.Pool
}

// NewGateway creates a Gateway over the given client and pool.
func NewGateway(client *Client, pool *signer.Pool) *Gateway {
	return &Gateway{client: client, pool: pool}
}

// Invoke performs one state-changing call as the principal's next credential.
func (g *Gateway) Invoke(ctx context.Context, principal, receiver, method string, args any, res CallResources) (CallOutcome, error) {
	cred, err := g.pool.Next(principal)
	if err != nil {
		return CallOutcome{}, err
	}
	return g.client.Call(ctx, cred, receiver, method, args, res)
}

// InvokeAs performs one state-changing call signed by an explicit credential,
// used for the run-owned test accounts that are not part of any principal.
func (g *Gateway) InvokeAs(ctx context.Context, cred domain.Credential, receiver, method string, args any, res CallResources) (CallOutcome, error) {
	return g.client.Call(ctx, cred, receiver, method, args, res)
}

// Transfer commits one native-currency transfer as the principal's next
// credential.
func (g *Gateway) Transfer(ctx context.Context, principal, receiver string, amount decimal.Decimal) (CallOutcome, error) {
	cred, err := g.pool.Next(principal)
	if err != nil {
		return CallOutcome{}, err
	}
	return g.client.Transfer(ctx, cred, receiver, amount)
}

// View performs one read-only contract query.
func (g *Gateway) View(ctx context.Context, receiver, method string, args, out any) error {
	return g.client.View(ctx, receiver, method, args, out)
}

// ViewAccount returns an account's native balance in minor units.
func (g *Gateway) ViewAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return g.client.ViewAccount(ctx, accountID)
}
