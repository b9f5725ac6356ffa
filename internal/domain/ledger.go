// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection marks whether a ledger entry took from or added to a balance.
type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

// LedgerEntry is the audit record written alongside every balance mutation.
type LedgerEntry struct {
	ID        int64           `db:"id" json:"id"`
	AccountID int64           `db:"account_id" json:"account_id"`
	WagerID   *string         `db:"wager_id" json:"wager_id"`
	Currency  Currency        `db:"currency" json:"currency"`
	Direction EntryDirection  `db:"direction" json:"direction"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Reason    string          `db:"reason" json:"reason"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a ledger entry for a single balance mutation.
func NewLedgerEntry(accountID int64, wagerID *string, currency Currency, direction EntryDirection, amount decimal.Decimal, reason string) *LedgerEntry {
	return &LedgerEntry{
		AccountID: accountID,
		WagerID:   wagerID,
		Currency:  currency,
		Direction: direction,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}
