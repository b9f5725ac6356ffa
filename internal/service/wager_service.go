// internal/service/wager_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"matchstake/internal/domain"
	"matchstake/internal/metrics"
	"matchstake/internal/odds"
	"matchstake/internal/provider"
	"matchstake/internal/repository"
	"matchstake/internal/util"
	"matchstake/pkg/db"
)

// WagerLimits bounds stake amounts per currency mode and fixes the virtual
// platform fee. Real-mode bounds are materially smaller than virtual-mode
// bounds, reflecting real financial exposure.
type WagerLimits struct {
	VirtualMin decimal.Decimal
	VirtualMax decimal.Decimal
	RealMin    decimal.Decimal
	RealMax    decimal.Decimal
	// VirtualPlatformFee is the fee fraction baked into virtual potential
	// payouts at placement. Real-mode payouts carry no separate fee; the
	// odds formula's house edge is the only margin there.
	VirtualPlatformFee decimal.Decimal
}

// DefaultWagerLimits returns the production stake bounds.
func DefaultWagerLimits() WagerLimits {
	return WagerLimits{
		VirtualMin:         decimal.NewFromInt(10),
		VirtualMax:         decimal.NewFromInt(10000),
		RealMin:            decimal.NewFromFloat(0.50),
		RealMax:            decimal.NewFromInt(50),
		VirtualPlatformFee: decimal.NewFromFloat(0.05),
	}
}

// WagerView pairs a wager with the owner's refreshed account.
type WagerView struct {
	Account *domain.Account `json:"account"`
	Wager   *domain.Wager   `json:"wager"`
}

// ResolveResult is the outcome of an on-demand resolution attempt.
// Settled=false is the benign "no new game yet" signal: the provider had
// nothing newer than the wager, no mutation happened, and the caller or the
// next scheduled run will try again later.
type ResolveResult struct {
	Settled bool            `json:"settled"`
	Account *domain.Account `json:"account,omitempty"`
	Wager   *domain.Wager   `json:"wager,omitempty"`
}

// AccountView is the balances read model, including the odds the account
// would currently receive.
type AccountView struct {
	Account     *domain.Account `json:"account"`
	CurrentOdds decimal.Decimal `json:"current_odds"`
	RiskLabel   string          `json:"risk_label"`
}

// WagerService defines the interface for wager lifecycle business logic.
type WagerService interface {
	PlaceWager(ctx context.Context, accountID int64, stake decimal.Decimal, mode domain.CurrencyMode) (*WagerView, error)
	ResolveOnDemand(ctx context.Context, accountID int64) (*ResolveResult, error)
	ActiveWager(ctx context.Context, accountID int64) (*domain.Wager, error)
	WagerHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.Wager, error)
	AccountView(ctx context.Context, accountID int64) (*AccountView, error)
	CancelWager(ctx context.Context, wagerID string) (*domain.Wager, error)
	CreditReal(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*domain.Account, error)
}

// wagerService implements the WagerService interface.
type wagerService struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	wagerRepo   repository.WagerRepository
	ledgerRepo  repository.LedgerRepository
	settler     *Settler
	provider    provider.MatchProvider
	odds        *odds.Engine
	limits      WagerLimits
	logger      *slog.Logger
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
}

// NewWagerService creates a new instance of WagerService.
func NewWagerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	wagerRepo repository.WagerRepository,
	ledgerRepo repository.LedgerRepository,
	settler *Settler,
	matchProvider provider.MatchProvider,
	oddsEngine *odds.Engine,
	limits WagerLimits,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) WagerService {
	return &wagerService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		wagerRepo:   wagerRepo,
		ledgerRepo:  ledgerRepo,
		settler:     settler,
		provider:    matchProvider,
		odds:        oddsEngine,
		limits:      limits,
		logger:      logger,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
	}
}

// stakeBounds returns the [min, max] stake band for a mode.
func (s *wagerService) stakeBounds(mode domain.CurrencyMode) (decimal.Decimal, decimal.Decimal) {
	if mode == domain.ModeReal {
		return s.limits.RealMin, s.limits.RealMax
	}
	return s.limits.VirtualMin, s.limits.VirtualMax
}

// potentialPayout applies the payout formula for a mode. Virtual payouts
// bake the platform fee in at placement; real payouts do not.
func (s *wagerService) potentialPayout(stake, oddsValue decimal.Decimal, mode domain.CurrencyMode) decimal.Decimal {
	payout := stake.Mul(oddsValue)
	if mode == domain.ModeVirtual {
		payout = payout.Mul(decimal.NewFromInt(1).Sub(s.limits.VirtualPlatformFee))
	}
	return payout.Round(2)
}

// PlaceWager stakes an amount on the owner's next qualifying match.
// Preconditions run in order, each a distinct failure: active wager exists,
// account not found, stake out of range, insufficient funds. No external
// network call occurs on this path.
func (s *wagerService) PlaceWager(ctx context.Context, accountID int64, stake decimal.Decimal, mode domain.CurrencyMode) (*WagerView, error) {
	start := time.Now()
	result := "fail"
	defer func() { metrics.RecordPlacement(result, string(mode), start) }()

	if !mode.Valid() {
		return nil, util.ErrInvalidMode
	}
	if stake.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("place wager: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("place wager: transaction controller does not implement DBExecutor")
	}

	if _, err := s.wagerRepo.GetPendingByAccount(ctx, txExecutor, accountID); err == nil {
		return nil, util.ErrActiveWagerExists
	} else if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("place wager: failed to check pending wager: %w", err)
	}

	account, err := s.accountRepo.GetAccountByID(ctx, txExecutor, accountID)
	if err != nil {
		if util.IsError(err, util.ErrAccountNotFound) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("place wager: failed to get account %d: %w", accountID, err)
	}

	minStake, maxStake := s.stakeBounds(mode)
	if stake.LessThan(minStake) || stake.GreaterThan(maxStake) {
		return nil, util.ErrStakeOutOfRange
	}

	currency := mode.Currency()
	if account.BalanceFor(currency).LessThan(stake) {
		return nil, util.ErrInsufficientFunds
	}

	oddsValue := s.odds.Compute(account.WinRate)
	wager := domain.NewWager(accountID, stake, mode, oddsValue, s.potentialPayout(stake, oddsValue, mode))

	// The conditional debit re-checks the balance; a concurrent spend of the
	// same funds loses here instead of driving the balance negative.
	if err := s.accountRepo.Debit(ctx, txExecutor, accountID, currency, stake); err != nil {
		if util.IsError(err, util.ErrInsufficientFunds) {
			return nil, util.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("place wager: failed to debit stake: %w", err)
	}
	entry := domain.NewLedgerEntry(accountID, &wager.ID, currency, domain.DirectionDebit, stake, "wager stake")
	if err := s.ledgerRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, fmt.Errorf("place wager: failed to record stake debit: %w", err)
	}

	if err := s.wagerRepo.InsertPending(ctx, txExecutor, wager); err != nil {
		return nil, fmt.Errorf("place wager: failed to insert wager: %w", err)
	}

	refreshed, err := s.accountRepo.GetAccountByID(ctx, txExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("place wager: failed to re-fetch account %d: %w", accountID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("place wager: failed to commit transaction: %w", err)
	}

	result = "success"
	s.logger.Info("wager placed",
		"wager_id", wager.ID,
		"account_id", accountID,
		"mode", mode,
		"stake", stake,
		"odds", oddsValue,
		"potential_payout", wager.PotentialPayout,
	)
	return &WagerView{Account: refreshed, Wager: wager}, nil
}

// ResolveOnDemand checks the owner's latest match and settles the pending
// wager if a new qualifying match has finished since placement.
func (s *wagerService) ResolveOnDemand(ctx context.Context, accountID int64) (*ResolveResult, error) {
	wager, err := s.wagerRepo.GetPendingByAccount(ctx, s.dbExecutor, accountID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNoActiveWager
		}
		return nil, fmt.Errorf("resolve: failed to get pending wager: %w", err)
	}

	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve: failed to get account %d: %w", accountID, err)
	}
	if account.ExternalPlayerID == nil {
		return nil, util.ErrNoLinkedPlayer
	}

	match, err := s.provider.LatestMatch(ctx, *account.ExternalPlayerID)
	if err != nil {
		if util.IsError(err, util.ErrNoMatches) {
			return &ResolveResult{Settled: false, Account: account, Wager: wager}, nil
		}
		return nil, fmt.Errorf("resolve: %w", err)
	}

	// Not strictly after placement means the player has not finished a new
	// game yet. Benign, no mutation.
	if !match.EndTime.After(wager.PlacedAt) {
		return &ResolveResult{Settled: false, Account: account, Wager: wager}, nil
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("resolve: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("resolve: transaction controller does not implement DBExecutor")
	}

	settled, err := s.settler.SettleInTx(ctx, txExecutor, wager, match, time.Now())
	if err != nil {
		if util.IsError(err, util.ErrStaleResult) {
			return &ResolveResult{Settled: false, Account: account, Wager: wager}, nil
		}
		return nil, err
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("resolve: failed to commit transaction: %w", err)
	}

	refreshed, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve: failed to re-fetch account %d: %w", accountID, err)
	}
	return &ResolveResult{Settled: true, Account: refreshed, Wager: settled}, nil
}

// ActiveWager returns the account's pending wager.
func (s *wagerService) ActiveWager(ctx context.Context, accountID int64) (*domain.Wager, error) {
	wager, err := s.wagerRepo.GetPendingByAccount(ctx, s.dbExecutor, accountID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNoActiveWager
		}
		return nil, fmt.Errorf("active wager: %w", err)
	}
	return wager, nil
}

// WagerHistory retrieves a paginated list of the account's wagers.
func (s *wagerService) WagerHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.Wager, error) {
	if _, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID); err != nil {
		return nil, err
	}
	wagers, err := s.wagerRepo.ListByAccount(ctx, s.dbExecutor, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wager history: %w", err)
	}
	return wagers, nil
}

// AccountView returns balances together with the current odds preview.
func (s *wagerService) AccountView(ctx context.Context, accountID int64) (*AccountView, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountView{
		Account:     account,
		CurrentOdds: s.odds.Compute(account.WinRate),
		RiskLabel:   s.odds.LabelFor(account.WinRate),
	}, nil
}

// CancelWager refunds a pending wager. Invoked only by the administrative
// refund collaborator, never internally.
func (s *wagerService) CancelWager(ctx context.Context, wagerID string) (*domain.Wager, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("cancel wager: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("cancel wager: transaction controller does not implement DBExecutor")
	}

	wager, err := s.wagerRepo.GetWagerByID(ctx, txExecutor, wagerID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.settler.CancelInTx(ctx, txExecutor, wager, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("cancel wager: failed to commit transaction: %w", err)
	}
	return cancelled, nil
}

// CreditReal applies an out-of-band real-balance credit from the funding
// provider. Additive only; the settlement engine never originates deposits.
func (s *wagerService) CreditReal(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("credit real: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("credit real: transaction controller does not implement DBExecutor")
	}

	if err := s.accountRepo.Credit(ctx, txExecutor, accountID, domain.CurrencyReal, amount); err != nil {
		return nil, err
	}
	entry := domain.NewLedgerEntry(accountID, nil, domain.CurrencyReal, domain.DirectionCredit, amount, reason)
	if err := s.ledgerRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, fmt.Errorf("credit real: failed to record credit: %w", err)
	}

	refreshed, err := s.accountRepo.GetAccountByID(ctx, txExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("credit real: failed to re-fetch account %d: %w", accountID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("credit real: failed to commit transaction: %w", err)
	}
	return refreshed, nil
}
