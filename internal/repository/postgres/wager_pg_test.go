// internal/repository/postgres/wager_pg_test.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"matchstake/internal/domain"
	"matchstake/internal/util"
)

// execErrStub is a DBExecutor whose statements all fail with a fixed error.
type execErrStub struct {
	err error
}

func (s execErrStub) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.err
}

func (s execErrStub) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.err
}

func (s execErrStub) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, s.err
}

func (s execErrStub) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func TestInsertPendingUniqueViolation(t *testing.T) {
	ctx := context.Background()
	repo := NewWagerRepository(nil)
	wager := domain.NewWager(1, decimal.NewFromInt(100), domain.ModeVirtual, decimal.NewFromFloat(1.70), decimal.NewFromFloat(161.50))

	t.Run("PendingIndexCollisionMapsToActiveWagerExists", func(t *testing.T) {
		q := execErrStub{err: &pq.Error{Code: "23505", Constraint: "wagers_one_pending_per_account"}}

		// A racing placement that loses to the partial unique index must get
		// the same rejection as the sequential precondition check.
		err := repo.InsertPending(ctx, q, wager)

		assert.ErrorIs(t, err, util.ErrActiveWagerExists)
	})

	t.Run("OtherUniqueViolationStaysWrapped", func(t *testing.T) {
		q := execErrStub{err: &pq.Error{Code: "23505", Constraint: "wagers_pkey"}}

		err := repo.InsertPending(ctx, q, wager)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, util.ErrActiveWagerExists)
	})

	t.Run("GenericErrorStaysWrapped", func(t *testing.T) {
		q := execErrStub{err: errors.New("connection reset")}

		err := repo.InsertPending(ctx, q, wager)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, util.ErrActiveWagerExists)
	})
}
