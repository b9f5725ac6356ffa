// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"matchstake/internal/domain"
	"matchstake/internal/repository"
	"matchstake/internal/util"
)

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &AccountRepository{}
}

// balanceColumn maps a currency to its accounts column. The currency type is
// closed, so unknown values are a programming error, not user input.
func balanceColumn(c domain.Currency) (string, error) {
	switch c {
	case domain.CurrencyVirtual:
		return "virtual_balance", nil
	case domain.CurrencyReal:
		return "real_balance", nil
	case domain.CurrencyReward:
		return "reward_credits", nil
	}
	return "", fmt.Errorf("unknown currency %q", c)
}

// CreateAccount inserts a new account using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (username, virtual_balance, real_balance, reward_credits, external_player_id, win_rate, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.Username,
		account.VirtualBalance,
		account.RealBalance,
		account.RewardCredits,
		account.ExternalPlayerID,
		account.WinRate,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID using the provided DBExecutor.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, username, virtual_balance, real_balance, reward_credits, external_player_id, win_rate, created_at, updated_at
              FROM accounts WHERE id = $1`
	err := q.GetContext(ctx, &account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %d: %w", id, err)
	}
	return &account, nil
}

// Debit conditionally decrements a balance. The WHERE clause guards against
// the balance going negative, so a lost race surfaces as zero rows affected
// rather than a corrupt balance.
func (r *AccountRepository) Debit(ctx context.Context, q repository.DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error {
	col, err := balanceColumn(currency)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s = %s - $1, updated_at = $2 WHERE id = $3 AND %s >= $1`, col, col, col)
	result, err := q.ExecContext(ctx, query, amount, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", accountID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected debiting account %d: %w", accountID, err)
	}
	if rowsAffected == 0 {
		// Either the account does not exist or the balance is too low.
		var exists bool
		if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID); err != nil {
			return fmt.Errorf("failed to check account %d after rejected debit: %w", accountID, err)
		}
		if !exists {
			return util.ErrAccountNotFound
		}
		return util.ErrInsufficientFunds
	}
	return nil
}

// Credit additively increments a balance, never by overwrite, so concurrent
// settlements cannot lose each other's updates.
func (r *AccountRepository) Credit(ctx context.Context, q repository.DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return util.ErrInvalidInput
	}
	col, err := balanceColumn(currency)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + $1, updated_at = $2 WHERE id = $3`, col, col)
	result, err := q.ExecContext(ctx, query, amount, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", accountID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected crediting account %d: %w", accountID, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}
