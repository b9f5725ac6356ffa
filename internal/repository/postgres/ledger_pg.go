// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"matchstake/internal/domain"
	"matchstake/internal/repository"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{}
}

// CreateEntry inserts a new ledger entry using the provided DBExecutor.
func (r *LedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (account_id, wager_id, currency, direction, amount, reason, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		entry.AccountID,
		entry.WagerID,
		entry.Currency,
		entry.Direction,
		entry.Amount,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// GetEntriesByAccountID retrieves a paginated list of ledger entries.
func (r *LedgerRepository) GetEntriesByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.LedgerEntry, error) {
	entries := []domain.LedgerEntry{}
	query := `SELECT id, account_id, wager_id, currency, direction, amount, reason, created_at
              FROM ledger_entries
              WHERE account_id = $1
              ORDER BY created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &entries, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries for account %d: %w", accountID, err)
	}
	return entries, nil
}
