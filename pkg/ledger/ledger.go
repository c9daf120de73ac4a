// Package ledger records final case outcomes on an external append-only
// ledger. Writes are best-effort from the courtroom's point of view: the
// orchestrator attempts them only when the client reports itself
// configured, and logs the outcome either way.
package ledger

import (
	"context"
	"errors"
	"math/big"
	"time"
)

var (
	ErrNotConfigured = errors.New("ledger: connection not fully configured")
	ErrUnconfirmed   = errors.New("ledger: transaction not confirmed within wait window")
)

// CaseRecord is the transaction intent written for a decided case.
// Monetary amounts are minor units (wei, 10^-18 of the human unit).
type CaseRecord struct {
	CaseID          string   `json:"case_id"`
	PostHash        string   `json:"post_hash"`
	VictimAddress   string   `json:"victim_address"`
	ViolationType   string   `json:"violation_type"`
	CouncilDecision string   `json:"council_decision"`
	PenaltyWei      *big.Int `json:"penalty_wei"`
	BanStatus       string   `json:"ban_status"`
	Explanation     string   `json:"explanation"`
	CompensationWei *big.Int `json:"compensation_wei"`
	SocialScore     int      `json:"social_score"`
}

// Receipt confirms an accepted ledger write.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	Confirmed   bool      `json:"confirmed"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Ledger is the write-append-only boundary the orchestrator consumes.
// Configured must be checked before RecordCase; an unconfigured ledger
// degrades gracefully rather than failing the session.
type Ledger interface {
	Configured() bool
	RecordCase(ctx context.Context, rec CaseRecord) (*Receipt, error)
}
