// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrWagerNotFound   = errors.New("wager not found")

	ErrInvalidInput      = errors.New("invalid input provided")
	ErrStakeOutOfRange   = errors.New("stake outside the allowed range for this mode")
	ErrInvalidMode       = errors.New("unknown currency mode")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Conflict family: legitimate business-rule rejections, zero mutation.
	ErrActiveWagerExists   = errors.New("an active wager already exists")
	ErrNoActiveWager       = errors.New("no active wager to resolve")
	ErrWagerNotPending     = errors.New("wager is not pending")
	ErrMatchAlreadySettled = errors.New("match already settled a wager for this account")

	// ErrStaleResult marks a match that finished before the wager was placed.
	// It is a benign "no new game yet" signal, not a failure.
	ErrStaleResult = errors.New("match result predates the wager")

	ErrNoLinkedPlayer = errors.New("account has no linked external player id")

	// Upstream family: the match provider misbehaved. ErrPlayerNotFound is
	// deliberately distinct from ErrNoMatches: an unknown player id is a
	// broken account link worth investigating, not a benign "no new game yet".
	ErrUpstream       = errors.New("match provider error")
	ErrRateLimited    = errors.New("match provider rate limit exceeded")
	ErrNoMatches      = errors.New("no recent matches found")
	ErrPlayerNotFound = errors.New("player not known to the match provider")

	ErrUnauthorized = errors.New("missing or invalid credential")
)

// IsError reports whether err matches the target sentinel.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
