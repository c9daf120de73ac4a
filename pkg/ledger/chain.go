package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ChainClient writes case records through an EVM transaction gateway.
// The gateway signs with the treasury key, submits the transaction, and
// exposes a receipt endpoint the client polls with a bounded wait.
type ChainClient struct {
	gatewayURL  string
	contract    string
	treasuryKey string
	http        *http.Client
	journal     *Journal
	logger      *slog.Logger

	confirmWait time.Duration
	pollEvery   time.Duration
}

// NewChainClient creates a chain client. Any empty parameter leaves the
// client unconfigured; RecordCase then returns ErrNotConfigured.
func NewChainClient(gatewayURL, contract, treasuryKey string, journal *Journal) *ChainClient {
	return &ChainClient{
		gatewayURL:  gatewayURL,
		contract:    contract,
		treasuryKey: treasuryKey,
		http:        &http.Client{Timeout: 30 * time.Second},
		journal:     journal,
		logger:      slog.Default().With("component", "ledger"),
		confirmWait: 120 * time.Second,
		pollEvery:   3 * time.Second,
	}
}

// Configured reports whether every connection parameter is present.
func (c *ChainClient) Configured() bool {
	return c.gatewayURL != "" && c.contract != "" && c.treasuryKey != ""
}

type submitRequest struct {
	Contract string         `json:"contract"`
	Method   string         `json:"method"`
	Args     map[string]any `json:"args"`
	AuthKey  string         `json:"auth_key"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type receiptResponse struct {
	TxHash    string `json:"tx_hash"`
	Status    string `json:"status"` // "pending", "confirmed", "failed"
	BlockTime string `json:"block_time,omitempty"`
}

// RecordCase submits a recordCase transaction and waits for confirmation
// within the bounded wait window. Every attempt lands in the journal.
func (c *ChainClient) RecordCase(ctx context.Context, rec CaseRecord) (*Receipt, error) {
	if !c.Configured() {
		c.track(rec.CaseID, "skipped", map[string]any{"reason": "not configured"})
		return nil, ErrNotConfigured
	}

	args := map[string]any{
		"caseId":                  rec.CaseID,
		"postHash":                rec.PostHash,
		"victimAddress":           rec.VictimAddress,
		"violationType":           rec.ViolationType,
		"councilDecision":         rec.CouncilDecision,
		"penaltyAmountWei":        rec.PenaltyWei.String(),
		"banStatus":               rec.BanStatus,
		"decisionExplanation":     rec.Explanation,
		"compensationToVictimWei": rec.CompensationWei.String(),
		"socialScore":             rec.SocialScore,
	}

	txHash, err := c.submit(ctx, "recordCase", args)
	if err != nil {
		c.track(rec.CaseID, "failed", map[string]any{"error": err.Error()})
		return nil, err
	}

	receipt, err := c.awaitConfirmation(ctx, txHash)
	if err != nil {
		c.track(rec.CaseID, "failed", map[string]any{"tx_hash": txHash, "error": err.Error()})
		return nil, err
	}

	c.track(rec.CaseID, "confirmed", map[string]any{"tx_hash": txHash, "args": args})
	return receipt, nil
}

func (c *ChainClient) submit(ctx context.Context, method string, args map[string]any) (string, error) {
	body, err := json.Marshal(submitRequest{
		Contract: c.contract,
		Method:   method,
		Args:     args,
		AuthKey:  c.treasuryKey,
	})
	if err != nil {
		return "", fmt.Errorf("ledger: marshal submit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.gatewayURL+"/transactions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("ledger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger: submit failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 && resp.StatusCode != 202 {
		return "", fmt.Errorf("ledger: gateway error: %d", resp.StatusCode)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("ledger: decode submit response: %w", err)
	}
	if sr.TxHash == "" {
		return "", fmt.Errorf("ledger: gateway returned no tx hash")
	}
	return sr.TxHash, nil
}

func (c *ChainClient) awaitConfirmation(ctx context.Context, txHash string) (*Receipt, error) {
	deadline := time.NewTimer(c.confirmWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.pollEvery)
	defer tick.Stop()

	for {
		rr, err := c.pollReceipt(ctx, txHash)
		if err == nil {
			switch rr.Status {
			case "confirmed":
				return &Receipt{TxHash: txHash, Confirmed: true, ConfirmedAt: time.Now().UTC()}, nil
			case "failed":
				return nil, fmt.Errorf("ledger: transaction %s failed on chain", txHash)
			}
		} else {
			c.logger.Warn("receipt poll failed", "tx_hash", txHash, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrUnconfirmed
		case <-tick.C:
		}
	}
}

func (c *ChainClient) pollReceipt(ctx context.Context, txHash string) (*receiptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.gatewayURL+"/transactions/"+txHash, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("receipt status %d", resp.StatusCode)
	}

	var rr receiptResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

func (c *ChainClient) track(caseID, outcome string, data map[string]any) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.Append(caseID, outcome, data); err != nil {
		c.logger.Warn("journal append failed", "case_id", caseID, "error", err)
	}
}
