package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gowebpki/jcs"
)

// JournalEntry is an immutable, hash-chained record of one attempted
// ledger write.
type JournalEntry struct {
	Sequence    uint64         `json:"sequence"`
	CaseID      string         `json:"case_id"`
	ContentHash string         `json:"content_hash"`
	PrevHash    string         `json:"prev_hash"`
	Timestamp   time.Time      `json:"timestamp"`
	Outcome     string         `json:"outcome"` // "confirmed", "failed", "skipped"
	Data        map[string]any `json:"data"`
}

// Journal is an append-only, hash-chained log mirroring every ledger
// write the courtroom attempts, whether or not the chain accepted it.
type Journal struct {
	mu       sync.RWMutex
	entries  []JournalEntry
	headHash string
	clock    func() time.Time
}

func NewJournal() *Journal {
	return &Journal{
		entries:  make([]JournalEntry, 0),
		headHash: "genesis",
		clock:    time.Now,
	}
}

// WithClock overrides clock for testing.
func (j *Journal) WithClock(clock func() time.Time) *Journal {
	j.clock = clock
	return j
}

// Append adds an entry to the journal. Returns the sequence number.
func (j *Journal) Append(caseID, outcome string, data map[string]any) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq := uint64(len(j.entries)) + 1

	hashInput := struct {
		Seq      uint64         `json:"seq"`
		CaseID   string         `json:"case_id"`
		Outcome  string         `json:"outcome"`
		Data     map[string]any `json:"data"`
		PrevHash string         `json:"prev"`
	}{seq, caseID, outcome, data, j.headHash}

	raw, err := json.Marshal(hashInput)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entry: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to canonicalize entry: %w", err)
	}
	h := sha256.Sum256(canonical)
	contentHash := "sha256:" + hex.EncodeToString(h[:])

	j.entries = append(j.entries, JournalEntry{
		Sequence:    seq,
		CaseID:      caseID,
		ContentHash: contentHash,
		PrevHash:    j.headHash,
		Timestamp:   j.clock(),
		Outcome:     outcome,
		Data:        data,
	})
	j.headHash = contentHash

	return seq, nil
}

// Head returns the current head hash.
func (j *Journal) Head() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.headHash
}

// Length returns the number of entries.
func (j *Journal) Length() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Entries returns a copy of the journal.
func (j *Journal) Entries() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Verify checks the integrity of the entire chain.
func (j *Journal) Verify() (bool, string) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	prevHash := "genesis"
	for i, entry := range j.entries {
		if entry.PrevHash != prevHash {
			return false, fmt.Sprintf("chain broken at entry %d: expected prev %s, got %s", i+1, prevHash, entry.PrevHash)
		}

		hashInput := struct {
			Seq      uint64         `json:"seq"`
			CaseID   string         `json:"case_id"`
			Outcome  string         `json:"outcome"`
			Data     map[string]any `json:"data"`
			PrevHash string         `json:"prev"`
		}{entry.Sequence, entry.CaseID, entry.Outcome, entry.Data, entry.PrevHash}

		raw, err := json.Marshal(hashInput)
		if err != nil {
			return false, fmt.Sprintf("failed to marshal entry %d", i+1)
		}
		canonical, err := jcs.Transform(raw)
		if err != nil {
			return false, fmt.Sprintf("failed to canonicalize entry %d", i+1)
		}
		h := sha256.Sum256(canonical)
		computed := "sha256:" + hex.EncodeToString(h[:])

		if computed != entry.ContentHash {
			return false, fmt.Sprintf("hash mismatch at entry %d", i+1)
		}
		prevHash = entry.ContentHash
	}

	return true, "chain verified"
}

// PostHash computes the canonical content hash written on chain for a
// flagged post.
func PostHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
