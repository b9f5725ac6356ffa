// internal/domain/wager.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyMode selects which balance a wager stakes against.
type CurrencyMode string

const (
	ModeVirtual CurrencyMode = "virtual"
	ModeReal    CurrencyMode = "real"
)

// Valid reports whether the mode is one of the two known modes.
func (m CurrencyMode) Valid() bool {
	return m == ModeVirtual || m == ModeReal
}

// Currency returns the balance currency debited/credited for this mode.
func (m CurrencyMode) Currency() Currency {
	if m == ModeReal {
		return CurrencyReal
	}
	return CurrencyVirtual
}

// WagerStatus is the lifecycle state of a wager.
// Transitions only run pending -> {won, lost, cancelled}, never backwards.
type WagerStatus string

const (
	StatusPending   WagerStatus = "pending"
	StatusWon       WagerStatus = "won"
	StatusLost      WagerStatus = "lost"
	StatusCancelled WagerStatus = "cancelled"
)

// Wager is a single bet on the outcome of the owner's next qualifying match.
type Wager struct {
	ID              string          `db:"id" json:"id"`
	AccountID       int64           `db:"account_id" json:"account_id"`
	Stake           decimal.Decimal `db:"stake" json:"stake"`
	CurrencyMode    CurrencyMode    `db:"currency_mode" json:"currency_mode"`
	Odds            decimal.Decimal `db:"odds" json:"odds"` // immutable after placement
	PotentialPayout decimal.Decimal `db:"potential_payout" json:"potential_payout"`
	Status          WagerStatus     `db:"status" json:"status"`
	PlacedAt        time.Time       `db:"placed_at" json:"placed_at"`
	ResolvedAt      *time.Time      `db:"resolved_at" json:"resolved_at"`
	ExternalMatchID *string         `db:"external_match_id" json:"external_match_id"`
	ResultSnapshot  []byte          `db:"result_snapshot" json:"result_snapshot,omitempty"` // display only
}

// NewWager creates a pending wager. Odds and potential payout are fixed here
// and never recomputed at settlement.
func NewWager(accountID int64, stake decimal.Decimal, mode CurrencyMode, odds, potentialPayout decimal.Decimal) *Wager {
	return &Wager{
		ID:              uuid.NewString(),
		AccountID:       accountID,
		Stake:           stake,
		CurrencyMode:    mode,
		Odds:            odds,
		PotentialPayout: potentialPayout,
		Status:          StatusPending,
		PlacedAt:        time.Now().UTC(),
	}
}
