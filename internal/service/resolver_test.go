// internal/service/resolver_test.go
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"matchstake/internal/domain"
	"matchstake/internal/util"
	"matchstake/pkg/db"
)

type resolverMocks struct {
	accountRepo *MockAccountRepository
	wagerRepo   *MockWagerRepository
	ledgerRepo  *MockLedgerRepository
	provider    *MockMatchProvider
	dbBeginner  *MockDBBeginner
	dbExecutor  *MockDBExecutor
	tx          *MockTxController
}

// newTestResolver builds a resolver with the given CallDelay; tests use zero
// so runs do not sleep.
func newTestResolver(callDelay time.Duration) (ResolverService, *resolverMocks) {
	m := &resolverMocks{
		accountRepo: new(MockAccountRepository),
		wagerRepo:   new(MockWagerRepository),
		ledgerRepo:  new(MockLedgerRepository),
		provider:    new(MockMatchProvider),
		dbBeginner:  new(MockDBBeginner),
		dbExecutor:  new(MockDBExecutor),
		tx:          new(MockTxController),
	}
	logger := util.GetLogger()
	settler := NewSettler(m.accountRepo, m.wagerRepo, m.ledgerRepo, logger)
	svc := NewResolverService(
		m.dbBeginner,
		m.dbExecutor,
		m.accountRepo,
		m.wagerRepo,
		settler,
		m.provider,
		ResolverConfig{MinGameDuration: 5 * time.Minute, CallDelay: callDelay},
		logger,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return m.tx, nil
		},
		func(tx db.TxController) error {
			return m.tx.Commit()
		},
		func(tx db.TxController) {
			_ = m.tx.Rollback()
		},
	)
	return svc, m
}

func pendingWager(accountID int64, placedAgo time.Duration) domain.Wager {
	w := testWager(domain.ModeVirtual, 100, 161.50)
	w.AccountID = accountID
	w.PlacedAt = time.Now().UTC().Add(-placedAgo)
	return *w
}

func TestResolverRun(t *testing.T) {
	t.Run("NoPendingWagers", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return([]domain.Wager{}, nil).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Empty(t, report.Entries)
		assert.Zero(t, report.Resolved)
		mock.AssertExpectationsForObjects(t, m.wagerRepo)
	})

	t.Run("SkipsRecentlyPlacedWager", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		pending := []domain.Wager{pendingWager(1, time.Minute)}
		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, "skipped", report.Entries[0].Disposition)
		m.provider.AssertNotCalled(t, "LatestMatch", mock.Anything, mock.Anything)
		mock.AssertExpectationsForObjects(t, m.wagerRepo)
	})

	t.Run("ResolvesEligibleWager", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		pending := []domain.Wager{pendingWager(1, 20*time.Minute)}
		account := testAccount(400, 0, fptr(50))
		match := testMatch(true, time.Now().UTC().Add(-time.Minute))

		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(account, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(match, nil).Once()
		// Duplicate guard runs twice: the pre-check and the one inside the
		// settlement transaction.
		m.wagerRepo.On("MatchAlreadyUsed", ctx, mock.Anything, int64(1), "match-123").Return(false, nil).Twice()
		m.wagerRepo.On("MarkSettled", ctx, mock.Anything, pending[0].ID, domain.StatusWon, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		m.accountRepo.On("Credit", ctx, mock.Anything, int64(1), domain.CurrencyVirtual, mock.Anything).Return(nil).Once()
		m.ledgerRepo.On("CreateEntry", ctx, mock.Anything, mock.AnythingOfType("*domain.LedgerEntry")).Return(nil).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)
		assert.Equal(t, "resolved", report.Entries[0].Disposition)
		assert.Equal(t, string(domain.StatusWon), report.Entries[0].Note)
		mock.AssertExpectationsForObjects(t, m.tx, m.wagerRepo, m.accountRepo, m.ledgerRepo, m.provider)
	})

	t.Run("RateLimitSkipsWithoutRetry", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		pending := []domain.Wager{pendingWager(1, 20*time.Minute)}
		account := testAccount(400, 0, fptr(50))

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(account, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(nil, util.ErrRateLimited).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		m.provider.AssertNumberOfCalls(t, "LatestMatch", 1)
		m.tx.AssertNotCalled(t, "Commit")
		mock.AssertExpectationsForObjects(t, m.wagerRepo, m.accountRepo, m.provider)
	})

	t.Run("UnknownPlayerMarkedErrored", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		pending := []domain.Wager{pendingWager(1, 20*time.Minute)}
		account := testAccount(400, 0, fptr(50))

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(account, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(nil, util.ErrPlayerNotFound).Once()

		report, err := svc.Run(ctx, time.Now())

		// A broken player link must surface as errored, never as a benign skip.
		assert.NoError(t, err)
		assert.Equal(t, 1, report.Errored)
		assert.Zero(t, report.Skipped)
		assert.Equal(t, "errored", report.Entries[0].Disposition)
		mock.AssertExpectationsForObjects(t, m.wagerRepo, m.accountRepo, m.provider)
	})

	t.Run("StaleMatchSkipped", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		wager := pendingWager(1, 20*time.Minute)
		account := testAccount(400, 0, fptr(50))
		// Latest match ended before the wager was placed.
		match := testMatch(true, wager.PlacedAt.Add(-time.Hour))

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return([]domain.Wager{wager}, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(account, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(match, nil).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		m.wagerRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mock.AssertExpectationsForObjects(t, m.wagerRepo, m.accountRepo, m.provider)
	})

	t.Run("MiddleFailureDoesNotAbortRun", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		first := pendingWager(1, 20*time.Minute)
		second := pendingWager(2, 20*time.Minute)
		third := pendingWager(3, 20*time.Minute)
		pending := []domain.Wager{first, second, third}

		accountOne := testAccount(400, 0, fptr(50))
		accountThree := testAccount(400, 0, fptr(50))
		accountThree.ID = 3

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()

		// First and third have no new match; the second blows up on load.
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(accountOne, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(2)).Return(nil, errors.New("db error")).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(3)).Return(accountThree, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(nil, util.ErrNoMatches).Twice()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Len(t, report.Entries, 3)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 1, report.Errored)
		assert.Equal(t, "errored", report.Entries[1].Disposition)
		mock.AssertExpectationsForObjects(t, m.wagerRepo, m.accountRepo, m.provider)
	})

	t.Run("ConcurrentSettlementSkipped", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newTestResolver(0)

		wager := pendingWager(1, 20*time.Minute)
		account := testAccount(400, 0, fptr(50))
		match := testMatch(true, time.Now().UTC().Add(-time.Minute))

		m.tx.On("Rollback").Return(nil).Once()

		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return([]domain.Wager{wager}, nil).Once()
		m.accountRepo.On("GetAccountByID", ctx, m.dbExecutor, int64(1)).Return(account, nil).Once()
		m.provider.On("LatestMatch", ctx, "player-abc").Return(match, nil).Once()
		m.wagerRepo.On("MatchAlreadyUsed", ctx, mock.Anything, int64(1), "match-123").Return(false, nil).Twice()
		// On-demand resolution got there first.
		m.wagerRepo.On("MarkSettled", ctx, mock.Anything, wager.ID, domain.StatusWon, mock.Anything, mock.Anything, mock.Anything).Return(util.ErrWagerNotPending).Once()

		report, err := svc.Run(ctx, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, "settled concurrently by another path", report.Entries[0].Note)
		m.tx.AssertNotCalled(t, "Commit")
		mock.AssertExpectationsForObjects(t, m.tx, m.wagerRepo, m.accountRepo, m.provider)
	})

	t.Run("CancelledContextEndsRunEarly", func(t *testing.T) {
		// A real delay so the inter-call pause deterministically observes the
		// already-cancelled context.
		svc, m := newTestResolver(time.Second)
		ctx, cancel := context.WithCancel(context.Background())

		pending := []domain.Wager{pendingWager(1, time.Minute), pendingWager(2, time.Minute)}
		m.wagerRepo.On("ListPending", ctx, m.dbExecutor).Return(pending, nil).Once()

		// Cancel before the run starts; the first wager is still examined, the
		// inter-call pause then observes the cancellation.
		cancel()
		report, err := svc.Run(ctx, time.Now())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, report.Entries, 1)
		mock.AssertExpectationsForObjects(t, m.wagerRepo)
	})
}
