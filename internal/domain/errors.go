package domain

import "errors"

var (
	// ErrConfiguration marks problems that make a run impossible before the
	// first remote call: missing credentials, malformed fixtures, bad config.
	ErrConfiguration = errors.New("configuration error")

	// ErrPrecondition marks an unmet runtime precondition, e.g. a funding
	// balance below its threshold during preflight.
	ErrPrecondition = errors.New("precondition not met")

	// ErrRemoteCall marks a failed remote call: network fault, RPC-level
	// rejection, or contract-level rejection. Always wraps the cause.
	ErrRemoteCall = errors.New("remote call failed")

	// ErrPhase marks the aggregated failure of one or more items in a batch
	// phase.
	ErrPhase = errors.New("phase failed")

	ErrInvalidTransition = errors.New("invalid match transition")
	ErrUnknownMatch      = errors.New("unknown match")
)
