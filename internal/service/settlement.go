// internal/service/settlement.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"matchstake/internal/domain"
	"matchstake/internal/metrics"
	"matchstake/internal/repository"
	"matchstake/internal/util"
)

// Settler holds the single state-transition routine that turns a
// (pending wager, match result) pair into a terminal wager plus ledger
// mutation. Both the on-demand path and the batch resolver go through it;
// neither duplicates its logic.
type Settler struct {
	accountRepo repository.AccountRepository
	wagerRepo   repository.WagerRepository
	ledgerRepo  repository.LedgerRepository
	logger      *slog.Logger
}

// NewSettler creates a Settler.
func NewSettler(
	accountRepo repository.AccountRepository,
	wagerRepo repository.WagerRepository,
	ledgerRepo repository.LedgerRepository,
	logger *slog.Logger,
) *Settler {
	return &Settler{
		accountRepo: accountRepo,
		wagerRepo:   wagerRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// SettleInTx settles a pending wager against a match result. It must run
// inside a transaction owned by the caller; every guard rejects with zero
// mutation.
//
// Guard order: pending status, duplicate match, staleness. The pending-status
// compare-and-swap inside MarkSettled is the concurrency-control primitive
// that prevents a double payout when the on-demand path and the batch
// resolver race on the same wager.
func (s *Settler) SettleInTx(ctx context.Context, q repository.DBExecutor, wager *domain.Wager, match *domain.MatchResult, now time.Time) (*domain.Wager, error) {
	if wager.Status != domain.StatusPending {
		return nil, util.ErrWagerNotPending
	}

	used, err := s.wagerRepo.MatchAlreadyUsed(ctx, q, wager.AccountID, match.MatchID)
	if err != nil {
		return nil, fmt.Errorf("settle: duplicate-match guard failed for wager %s: %w", wager.ID, err)
	}
	if used {
		return nil, util.ErrMatchAlreadySettled
	}

	// A match that finished before the wager existed cannot be the outcome
	// being wagered on.
	if !match.EndTime.After(wager.PlacedAt) {
		return nil, util.ErrStaleResult
	}

	status := domain.StatusLost
	if match.Win {
		status = domain.StatusWon
	}

	snapshot, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("settle: failed to encode result snapshot: %w", err)
	}

	resolvedAt := now.UTC()
	matchID := match.MatchID
	if err := s.wagerRepo.MarkSettled(ctx, q, wager.ID, status, resolvedAt, &matchID, snapshot); err != nil {
		return nil, err
	}

	if status == domain.StatusWon {
		if err := s.creditWin(ctx, q, wager); err != nil {
			return nil, err
		}
	}
	// On a loss the stake was already removed at placement; the ledger is
	// not touched again.

	settled := *wager
	settled.Status = status
	settled.ResolvedAt = &resolvedAt
	settled.ExternalMatchID = &matchID
	settled.ResultSnapshot = snapshot

	metrics.RecordSettlement(string(status), string(wager.CurrencyMode))
	s.logger.Info("wager settled",
		"wager_id", wager.ID,
		"account_id", wager.AccountID,
		"match_id", match.MatchID,
		"status", status,
		"mode", wager.CurrencyMode,
	)
	return &settled, nil
}

// creditWin applies the mode-specific payout distribution.
func (s *Settler) creditWin(ctx context.Context, q repository.DBExecutor, wager *domain.Wager) error {
	switch wager.CurrencyMode {
	case domain.ModeVirtual:
		// The full potential payout goes back to the virtual balance; the
		// platform fee was already baked in at placement.
		if err := s.accountRepo.Credit(ctx, q, wager.AccountID, domain.CurrencyVirtual, wager.PotentialPayout); err != nil {
			return fmt.Errorf("settle: failed to credit virtual payout for wager %s: %w", wager.ID, err)
		}
		entry := domain.NewLedgerEntry(wager.AccountID, &wager.ID, domain.CurrencyVirtual, domain.DirectionCredit, wager.PotentialPayout, "wager won payout")
		if err := s.ledgerRepo.CreateEntry(ctx, q, entry); err != nil {
			return fmt.Errorf("settle: failed to record virtual payout for wager %s: %w", wager.ID, err)
		}

	case domain.ModeReal:
		// Principal is returned to the real balance; profit becomes reward
		// credits, spendable only through the redemption flow.
		if err := s.accountRepo.Credit(ctx, q, wager.AccountID, domain.CurrencyReal, wager.Stake); err != nil {
			return fmt.Errorf("settle: failed to return stake for wager %s: %w", wager.ID, err)
		}
		stakeEntry := domain.NewLedgerEntry(wager.AccountID, &wager.ID, domain.CurrencyReal, domain.DirectionCredit, wager.Stake, "wager won stake return")
		if err := s.ledgerRepo.CreateEntry(ctx, q, stakeEntry); err != nil {
			return fmt.Errorf("settle: failed to record stake return for wager %s: %w", wager.ID, err)
		}

		profit := wager.PotentialPayout.Sub(wager.Stake)
		if profit.IsPositive() {
			if err := s.accountRepo.Credit(ctx, q, wager.AccountID, domain.CurrencyReward, profit); err != nil {
				return fmt.Errorf("settle: failed to credit reward profit for wager %s: %w", wager.ID, err)
			}
			profitEntry := domain.NewLedgerEntry(wager.AccountID, &wager.ID, domain.CurrencyReward, domain.DirectionCredit, profit, "wager won reward profit")
			if err := s.ledgerRepo.CreateEntry(ctx, q, profitEntry); err != nil {
				return fmt.Errorf("settle: failed to record reward profit for wager %s: %w", wager.ID, err)
			}
		}

	default:
		return fmt.Errorf("settle: %w: %q", util.ErrInvalidMode, wager.CurrencyMode)
	}
	return nil
}

// CancelInTx transitions a pending wager to cancelled and refunds the stake.
// Invoked only by the administrative refund collaborator.
func (s *Settler) CancelInTx(ctx context.Context, q repository.DBExecutor, wager *domain.Wager, now time.Time) (*domain.Wager, error) {
	if wager.Status != domain.StatusPending {
		return nil, util.ErrWagerNotPending
	}

	resolvedAt := now.UTC()
	if err := s.wagerRepo.MarkSettled(ctx, q, wager.ID, domain.StatusCancelled, resolvedAt, nil, nil); err != nil {
		return nil, err
	}

	currency := wager.CurrencyMode.Currency()
	if err := s.accountRepo.Credit(ctx, q, wager.AccountID, currency, wager.Stake); err != nil {
		return nil, fmt.Errorf("cancel: failed to refund stake for wager %s: %w", wager.ID, err)
	}
	entry := domain.NewLedgerEntry(wager.AccountID, &wager.ID, currency, domain.DirectionCredit, wager.Stake, "wager cancelled refund")
	if err := s.ledgerRepo.CreateEntry(ctx, q, entry); err != nil {
		return nil, fmt.Errorf("cancel: failed to record refund for wager %s: %w", wager.ID, err)
	}

	cancelled := *wager
	cancelled.Status = domain.StatusCancelled
	cancelled.ResolvedAt = &resolvedAt

	metrics.RecordSettlement(string(domain.StatusCancelled), string(wager.CurrencyMode))
	s.logger.Info("wager cancelled", "wager_id", wager.ID, "account_id", wager.AccountID)
	return &cancelled, nil
}
