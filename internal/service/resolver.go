// internal/service/resolver.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"matchstake/internal/domain"
	"matchstake/internal/metrics"
	"matchstake/internal/provider"
	"matchstake/internal/repository"
	"matchstake/internal/util"
	"matchstake/pkg/db"
)

// ResolverConfig tunes the periodic reconciliation loop.
type ResolverConfig struct {
	// MinGameDuration is the minimum elapsed time since placement before a
	// wager is worth a provider call; matches cannot end faster than this.
	MinGameDuration time.Duration
	// CallDelay is inserted between successive provider calls within one
	// run to respect the provider's rate limit.
	CallDelay time.Duration
}

// DefaultResolverConfig returns the production reconciliation pacing.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MinGameDuration: 5 * time.Minute,
		CallDelay:       1500 * time.Millisecond,
	}
}

// ResolverService drives pending wagers to settlement against the external
// match provider. A run is a function of (now, pending wagers, provider):
// the HTTP trigger is just one caller among possibly several.
type ResolverService interface {
	Run(ctx context.Context, now time.Time) (*domain.RunReport, error)
}

type resolverService struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	wagerRepo   repository.WagerRepository
	settler     *Settler
	provider    provider.MatchProvider
	cfg         ResolverConfig
	logger      *slog.Logger
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
}

// NewResolverService creates a new instance of ResolverService.
func NewResolverService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	wagerRepo repository.WagerRepository,
	settler *Settler,
	matchProvider provider.MatchProvider,
	cfg ResolverConfig,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) ResolverService {
	return &resolverService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		wagerRepo:   wagerRepo,
		settler:     settler,
		provider:    matchProvider,
		cfg:         cfg,
		logger:      logger,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
	}
}

// Run reconciles all pending wagers, oldest first, sequentially. A failure
// on one wager never aborts the rest; each wager is examined independently
// and its disposition recorded in the report. Runs are idempotent and safe
// to overlap with each other or with on-demand resolution, because the only
// mutation path (the Settler) enforces the pending-status guard.
func (s *resolverService) Run(ctx context.Context, now time.Time) (*domain.RunReport, error) {
	start := time.Now()
	report := &domain.RunReport{StartedAt: now.UTC(), Entries: []domain.RunEntry{}}

	pending, err := s.wagerRepo.ListPending(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("resolver run: failed to list pending wagers: %w", err)
	}

	for i := range pending {
		if i > 0 {
			// Pace provider calls; a cancelled context ends the run early
			// and the remaining wagers wait for the next one.
			select {
			case <-ctx.Done():
				s.recordRun(report, start)
				return report, ctx.Err()
			case <-time.After(s.cfg.CallDelay):
			}
		}

		entry := s.checkOne(ctx, now, &pending[i])
		report.Entries = append(report.Entries, entry)
		switch entry.Disposition {
		case "resolved":
			report.Resolved++
		case "errored":
			report.Errored++
		default:
			report.Skipped++
		}
	}

	s.recordRun(report, start)
	return report, nil
}

func (s *resolverService) recordRun(report *domain.RunReport, start time.Time) {
	metrics.RecordResolverRun(report.Resolved, report.Skipped, report.Errored, start)
	s.logger.Info("resolver run finished",
		"examined", len(report.Entries),
		"resolved", report.Resolved,
		"skipped", report.Skipped,
		"errored", report.Errored,
	)
}

// checkOne evaluates a single pending wager and returns its disposition.
// Errors are contained here; they never propagate to the run loop.
func (s *resolverService) checkOne(ctx context.Context, now time.Time, wager *domain.Wager) domain.RunEntry {
	entry := domain.RunEntry{WagerID: wager.ID, AccountID: wager.AccountID}

	skip := func(note string) domain.RunEntry {
		entry.Disposition = "skipped"
		entry.Note = note
		s.logger.Info("resolver skipped wager", "wager_id", wager.ID, "note", note)
		return entry
	}
	fail := func(stage string, err error) domain.RunEntry {
		entry.Disposition = "errored"
		entry.Note = fmt.Sprintf("%s: %v", stage, err)
		s.logger.Error("resolver wager failed", "wager_id", wager.ID, "stage", stage, "error", err)
		return entry
	}

	if now.Sub(wager.PlacedAt) < s.cfg.MinGameDuration {
		return skip("placed too recently, match cannot have ended")
	}

	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, wager.AccountID)
	if err != nil {
		return fail("load account", err)
	}
	if account.ExternalPlayerID == nil {
		return skip("no linked external player id")
	}

	match, err := s.provider.LatestMatch(ctx, *account.ExternalPlayerID)
	if err != nil {
		switch {
		case util.IsError(err, util.ErrNoMatches):
			return skip("no recent matches")
		case util.IsError(err, util.ErrRateLimited):
			// Try again next run; never retried within the same run.
			return skip("provider rate limited")
		case util.IsError(err, util.ErrPlayerNotFound):
			// Broken account link; surfaced as errored so it gets looked at
			// instead of silently skipping forever.
			return fail("unknown external player id", err)
		default:
			return fail("provider lookup", err)
		}
	}

	if !match.EndTime.After(wager.PlacedAt) {
		return skip("latest match predates wager")
	}

	// Defensive duplicate re-check before entering the settlement
	// transaction, alongside the guard inside the Settler itself.
	used, err := s.wagerRepo.MatchAlreadyUsed(ctx, s.dbExecutor, wager.AccountID, match.MatchID)
	if err != nil {
		return fail("duplicate-match guard", err)
	}
	if used {
		return skip("match already settled a wager")
	}

	settled, err := s.settleOne(ctx, wager, match, now)
	if err != nil {
		switch {
		case util.IsError(err, util.ErrWagerNotPending), util.IsError(err, util.ErrMatchAlreadySettled):
			// Lost the race to an on-demand resolution or a sibling run.
			return skip("settled concurrently by another path")
		case util.IsError(err, util.ErrStaleResult):
			return skip("latest match predates wager")
		default:
			return fail("settlement", err)
		}
	}

	entry.Disposition = "resolved"
	entry.Note = string(settled.Status)
	return entry
}

// settleOne runs the settlement function inside its own transaction.
func (s *resolverService) settleOne(ctx context.Context, wager *domain.Wager, match *domain.MatchResult, now time.Time) (*domain.Wager, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}

	settled, err := s.settler.SettleInTx(ctx, txExecutor, wager, match, now)
	if err != nil {
		return nil, err
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settled, nil
}
