// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"matchstake/internal/domain"
)

// LedgerRepository defines the audit-trail operations.
type LedgerRepository interface {
	// CreateEntry adds a ledger entry recording one balance mutation.
	CreateEntry(ctx context.Context, q DBExecutor, entry *domain.LedgerEntry) error
	// GetEntriesByAccountID retrieves entries for an account, newest first.
	GetEntriesByAccountID(ctx context.Context, q DBExecutor, accountID int64, limit, offset int) ([]domain.LedgerEntry, error)
}
