// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"matchstake/internal/domain"
	"matchstake/internal/repository"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockAccountRepository is a mock implementation of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, q repository.DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error {
	args := m.Called(ctx, q, accountID, currency, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Credit(ctx context.Context, q repository.DBExecutor, accountID int64, currency domain.Currency, amount decimal.Decimal) error {
	args := m.Called(ctx, q, accountID, currency, amount)
	return args.Error(0)
}

// MockWagerRepository is a mock implementation of repository.WagerRepository.
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) InsertPending(ctx context.Context, q repository.DBExecutor, wager *domain.Wager) error {
	args := m.Called(ctx, q, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetWagerByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Wager, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetPendingByAccount(ctx context.Context, q repository.DBExecutor, accountID int64) (*domain.Wager, error) {
	args := m.Called(ctx, q, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListPending(ctx context.Context, q repository.DBExecutor) ([]domain.Wager, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListByAccount(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.Wager, error) {
	args := m.Called(ctx, q, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Wager), args.Error(1)
}

func (m *MockWagerRepository) MarkSettled(ctx context.Context, q repository.DBExecutor, wagerID string, status domain.WagerStatus, resolvedAt time.Time, externalMatchID *string, resultSnapshot []byte) error {
	args := m.Called(ctx, q, wagerID, status, resolvedAt, externalMatchID, resultSnapshot)
	return args.Error(0)
}

func (m *MockWagerRepository) MatchAlreadyUsed(ctx context.Context, q repository.DBExecutor, accountID int64, matchID string) (bool, error) {
	args := m.Called(ctx, q, accountID, matchID)
	return args.Bool(0), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetEntriesByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, q, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

// MockMatchProvider is a mock implementation of provider.MatchProvider.
type MockMatchProvider struct {
	mock.Mock
}

func (m *MockMatchProvider) LatestMatch(ctx context.Context, playerID string) (*domain.MatchResult, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implicitly implements repository.DBExecutor for testing purposes
// by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor // Embed MockDBExecutor to satisfy repository.DBExecutor interface
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
