// internal/domain/match.go
package domain

import "time"

// MatchStats is the opaque outcome detail kept for display only.
// Settlement logic never reads it.
type MatchStats struct {
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Assists     int    `json:"assists"`
	Character   string `json:"character,omitempty"`
	DurationSec int    `json:"duration_sec,omitempty"`
}

// MatchResult is the most recent qualifying match reported by the
// external match-history provider for a linked player.
type MatchResult struct {
	MatchID string     `json:"match_id"`
	Win     bool       `json:"win"`
	EndTime time.Time  `json:"end_time"`
	Stats   MatchStats `json:"stats"`
}

// RunEntry is one per-wager line in a reconciliation run report.
type RunEntry struct {
	WagerID     string `json:"wager_id"`
	AccountID   int64  `json:"account_id"`
	Disposition string `json:"disposition"` // resolved | skipped | errored
	Note        string `json:"note,omitempty"`
}

// RunReport summarizes a single reconciliation run over pending wagers.
type RunReport struct {
	StartedAt time.Time  `json:"started_at"`
	Resolved  int        `json:"resolved"`
	Skipped   int        `json:"skipped"`
	Errored   int        `json:"errored"`
	Entries   []RunEntry `json:"entries"`
}
