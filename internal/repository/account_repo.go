// internal/repository/account_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"matchstake/internal/domain"
)

// AccountRepository defines the ledger-store operations on accounts.
//
// Debit and Credit are the only two balance primitives. Both are single
// guarded UPDATE statements so that concurrent settlement attempts can
// never lose an update: Credit is additive and unconditional, Debit is
// conditional on sufficient funds. There is no "set balance" primitive.
type AccountRepository interface {
	// CreateAccount adds a new account using the provided DBExecutor.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByID retrieves an account by its ID.
	GetAccountByID(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// Debit decrements the given currency balance, failing with
	// util.ErrInsufficientFunds if the balance would go negative.
	Debit(ctx context.Context, q DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error
	// Credit increments the given currency balance. Always succeeds for
	// an existing account and a non-negative amount.
	Credit(ctx context.Context, q DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error
}
