// internal/domain/account.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifies one of the three balances carried by an account.
type Currency string

const (
	CurrencyVirtual Currency = "virtual"
	CurrencyReal    Currency = "real"
	CurrencyReward  Currency = "reward"
)

// Account represents a player account with its three balances.
// Balances are only ever mutated through the ledger repository
// (conditional debit, additive credit); never overwritten.
type Account struct {
	ID               int64           `db:"id" json:"id"`
	Username         string          `db:"username" json:"username"`
	VirtualBalance   decimal.Decimal `db:"virtual_balance" json:"virtual_balance"`
	RealBalance      decimal.Decimal `db:"real_balance" json:"real_balance"`
	RewardCredits    decimal.Decimal `db:"reward_credits" json:"reward_credits"`
	ExternalPlayerID *string         `db:"external_player_id" json:"external_player_id"`
	WinRate          *float64        `db:"win_rate" json:"win_rate"` // cached percentage, nullable
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAccount creates a new Account instance with zeroed balances.
func NewAccount(username string) *Account {
	now := time.Now().UTC()
	return &Account{
		Username:       username,
		VirtualBalance: decimal.Zero,
		RealBalance:    decimal.Zero,
		RewardCredits:  decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// BalanceFor returns the balance for the given currency.
func (a *Account) BalanceFor(c Currency) decimal.Decimal {
	switch c {
	case CurrencyVirtual:
		return a.VirtualBalance
	case CurrencyReal:
		return a.RealBalance
	case CurrencyReward:
		return a.RewardCredits
	}
	return decimal.Zero
}
