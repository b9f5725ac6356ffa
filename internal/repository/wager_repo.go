// internal/repository/wager_repo.go
package repository

import (
	"context"
	"time"

	"matchstake/internal/domain"
)

// WagerRepository defines the wager-table operations.
type WagerRepository interface {
	// InsertPending adds a new wager row with status pending.
	InsertPending(ctx context.Context, q DBExecutor, wager *domain.Wager) error
	// GetWagerByID retrieves a wager by its ID.
	GetWagerByID(ctx context.Context, q DBExecutor, id string) (*domain.Wager, error)
	// GetPendingByAccount returns the account's pending wager, or
	// util.ErrNotFound when there is none.
	GetPendingByAccount(ctx context.Context, q DBExecutor, accountID int64) (*domain.Wager, error)
	// ListPending returns all pending wagers ordered oldest placed_at first.
	ListPending(ctx context.Context, q DBExecutor) ([]domain.Wager, error)
	// ListByAccount returns the account's wager history, newest first.
	ListByAccount(ctx context.Context, q DBExecutor, accountID int64, limit, offset int) ([]domain.Wager, error)
	// MarkSettled transitions a wager out of pending with a compare-and-swap:
	// the UPDATE only applies while status is still pending, and
	// util.ErrWagerNotPending is returned when another caller won the race.
	MarkSettled(ctx context.Context, q DBExecutor, wagerID string, status domain.WagerStatus, resolvedAt time.Time, externalMatchID *string, resultSnapshot []byte) error
	// MatchAlreadyUsed reports whether the (account, match) pair is already
	// recorded against a non-pending wager.
	MatchAlreadyUsed(ctx context.Context, q DBExecutor, accountID int64, matchID string) (bool, error)
}
