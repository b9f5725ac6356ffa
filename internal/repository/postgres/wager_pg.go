// internal/repository/postgres/wager_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"matchstake/internal/domain"
	"matchstake/internal/repository"
	"matchstake/internal/util"
)

// WagerRepository implements repository.WagerRepository for PostgreSQL.
type WagerRepository struct{}

// NewWagerRepository creates a new WagerRepository.
func NewWagerRepository(db *sqlx.DB) repository.WagerRepository {
	return &WagerRepository{}
}

const wagerColumns = `id, account_id, stake, currency_mode, odds, potential_payout, status, placed_at, resolved_at, external_match_id, result_snapshot`

// InsertPending adds a new pending wager. A partial unique index on
// (account_id) WHERE status = 'pending' backs the one-pending-wager
// invariant at the storage layer as well.
func (r *WagerRepository) InsertPending(ctx context.Context, q repository.DBExecutor, wager *domain.Wager) error {
	query := `INSERT INTO wagers (id, account_id, stake, currency_mode, odds, potential_payout, status, placed_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.ExecContext(ctx, query,
		wager.ID,
		wager.AccountID,
		wager.Stake,
		wager.CurrencyMode,
		wager.Odds,
		wager.PotentialPayout,
		wager.Status,
		wager.PlacedAt,
	)
	if err != nil {
		// Two placements racing past the service-level pending check collide
		// on the partial unique index; report it like the sequential case.
		if isUniqueViolation(err, "wagers_one_pending_per_account") {
			return util.ErrActiveWagerExists
		}
		return fmt.Errorf("failed to insert pending wager: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

// GetWagerByID retrieves a wager by its ID using the provided DBExecutor.
func (r *WagerRepository) GetWagerByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Wager, error) {
	var wager domain.Wager
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	err := q.GetContext(ctx, &wager, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWagerNotFound
		}
		return nil, fmt.Errorf("failed to get wager %s: %w", id, err)
	}
	return &wager, nil
}

// GetPendingByAccount returns the account's single pending wager.
func (r *WagerRepository) GetPendingByAccount(ctx context.Context, q repository.DBExecutor, accountID int64) (*domain.Wager, error) {
	var wager domain.Wager
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE account_id = $1 AND status = 'pending'`
	err := q.GetContext(ctx, &wager, query, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending wager for account %d: %w", accountID, err)
	}
	return &wager, nil
}

// ListPending returns every pending wager, oldest placed_at first, so
// long-waiting wagers are reconciled before newer ones.
func (r *WagerRepository) ListPending(ctx context.Context, q repository.DBExecutor) ([]domain.Wager, error) {
	wagers := []domain.Wager{}
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE status = 'pending' ORDER BY placed_at ASC`
	if err := q.SelectContext(ctx, &wagers, query); err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	return wagers, nil
}

// ListByAccount retrieves a paginated wager history for an account.
func (r *WagerRepository) ListByAccount(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.Wager, error) {
	wagers := []domain.Wager{}
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE account_id = $1 ORDER BY placed_at DESC LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &wagers, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list wagers for account %d: %w", accountID, err)
	}
	return wagers, nil
}

// MarkSettled performs the pending-status compare-and-swap. Zero rows
// affected means another caller already settled or cancelled the wager;
// the caller must treat that as a rejection, not retry the transition.
func (r *WagerRepository) MarkSettled(ctx context.Context, q repository.DBExecutor, wagerID string, status domain.WagerStatus, resolvedAt time.Time, externalMatchID *string, resultSnapshot []byte) error {
	query := `UPDATE wagers
              SET status = $1, resolved_at = $2, external_match_id = $3, result_snapshot = $4
              WHERE id = $5 AND status = 'pending'`
	result, err := q.ExecContext(ctx, query, status, resolvedAt, externalMatchID, resultSnapshot, wagerID)
	if err != nil {
		return fmt.Errorf("failed to settle wager %s: %w", wagerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected settling wager %s: %w", wagerID, err)
	}
	if rowsAffected == 0 {
		return util.ErrWagerNotPending
	}
	return nil
}

// MatchAlreadyUsed reports whether the (account, match) idempotency key is
// already attached to a resolved wager.
func (r *WagerRepository) MatchAlreadyUsed(ctx context.Context, q repository.DBExecutor, accountID int64, matchID string) (bool, error) {
	var used bool
	query := `SELECT EXISTS (
                  SELECT 1 FROM wagers
                  WHERE account_id = $1 AND external_match_id = $2 AND status <> 'pending'
              )`
	if err := q.GetContext(ctx, &used, query, accountID, matchID); err != nil {
		return false, fmt.Errorf("failed to check match %s for account %d: %w", matchID, accountID, err)
	}
	return used, nil
}
