package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppendChainsEntries(t *testing.T) {
	j := NewJournal()
	assert.Equal(t, "genesis", j.Head())

	seq, err := j.Append("case-1", "confirmed", map[string]any{"tx_hash": "0xaaa"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	firstHead := j.Head()
	assert.NotEqual(t, "genesis", firstHead)

	seq, err = j.Append("case-2", "failed", map[string]any{"error": "gateway error: 502"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	assert.NotEqual(t, firstHead, j.Head())

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "genesis", entries[0].PrevHash)
	assert.Equal(t, entries[0].ContentHash, entries[1].PrevHash)
}

func TestJournalVerify(t *testing.T) {
	j := NewJournal()
	_, err := j.Append("case-1", "confirmed", map[string]any{"tx_hash": "0xaaa"})
	require.NoError(t, err)
	_, err = j.Append("case-1", "skipped", map[string]any{"reason": "not configured"})
	require.NoError(t, err)

	ok, msg := j.Verify()
	assert.True(t, ok, msg)
}

func TestJournalVerifyDetectsTampering(t *testing.T) {
	j := NewJournal()
	_, err := j.Append("case-1", "confirmed", map[string]any{"tx_hash": "0xaaa"})
	require.NoError(t, err)
	_, err = j.Append("case-2", "confirmed", map[string]any{"tx_hash": "0xbbb"})
	require.NoError(t, err)

	j.entries[0].Outcome = "failed"
	ok, msg := j.Verify()
	assert.False(t, ok)
	assert.Contains(t, msg, "hash mismatch")
}

func TestPostHash(t *testing.T) {
	h := PostHash("offensive post content")
	assert.Len(t, h, 64)
	assert.Equal(t, h, PostHash("offensive post content"))
	assert.NotEqual(t, h, PostHash("different content"))
}
