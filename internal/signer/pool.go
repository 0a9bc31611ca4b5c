// Package signer holds the credential pool used to spread signing load
// across multiple keys per principal. Rotating credentials keeps concurrent
// calls from contending on a single key's nonce sequence.
package signer

import (
	"fmt"
	"sync/atomic"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

// Principal is a named identity owning an ordered, non-empty credential list.
type Principal struct {
	Name        string
	Credentials []domain.Credential
}

// Pool rotates round-robin through each principal's credentials. One pool is
// instantiated per run; there is no package-level state.
type Pool struct {
	principals map[string]*rotation
}

type rotation struct {
	creds  []domain.Credential
	cursor atomic.Uint64
}

// NewPool builds a pool from the given principals. It fails if a principal
// has no credentials or if two principals share a name.
func NewPool(principals []Principal) (*Pool, error) {
	byName := make(map[string]*rotation, len(principals))
	for _, p := range principals {
		if len(p.Credentials) == 0 {
			return nil, fmt.Errorf("signer: principal %q has no credentials: %w", p.Name, domain.ErrConfiguration)
		}
		if _, dup := byName[p.Name]; dup {
			return nil, fmt.Errorf("signer: duplicate principal %q: %w", p.Name, domain.ErrConfiguration)
		}
		byName[p.Name] = &rotation{creds: p.Credentials}
	}
	return &Pool{principals: byName}, nil
}

// Next returns the principal's credential at the current cursor position and
// advances the cursor. The advance is a single atomic add, so concurrent
// callers never observe the same position.
func (p *Pool) Next(principal string) (domain.Credential, error) {
	rot, ok := p.principals[principal]
	if !ok {
		return domain.Credential{}, fmt.Errorf("signer: unknown principal %q: %w", principal, domain.ErrConfiguration)
	}
	idx := rot.cursor.Add(1) - 1
	return rot.creds[idx%uint64(len(rot.creds))], nil
}

// Size returns how many credentials the principal owns, or 0 if unknown.
func (p *Pool) Size(principal string) int {
	rot, ok := p.principals[principal]
	if !ok {
		return 0
	}
	return len(rot.creds)
}
