package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "cases", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSetMergesTopLevel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{
		"status":      "Violation Detected",
		"postContent": "flagged post",
	}))
	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{
		"status":      "Case Closed - No Violation",
		"socialScore": 80,
	}))

	doc, err := s.Get(ctx, "cases", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Case Closed - No Violation", doc["status"])
	assert.Equal(t, "flagged post", doc["postContent"], "absent keys must be preserved")
	assert.Equal(t, float64(80), doc["socialScore"])
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	original := map[string]any{"status": "open"}
	require.NoError(t, s.Set(ctx, "cases", "c1", original))

	// Mutating the input after Set must not affect the stored copy.
	original["status"] = "mutated"
	doc, err := s.Get(ctx, "cases", "c1")
	require.NoError(t, err)
	assert.Equal(t, "open", doc["status"])

	// Mutating a returned doc must not affect later reads.
	doc["status"] = "also mutated"
	again, err := s.Get(ctx, "cases", "c1")
	require.NoError(t, err)
	assert.Equal(t, "open", again["status"])
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{"userId": "u1", "status": "open"}))
	require.NoError(t, s.Set(ctx, "cases", "c2", map[string]any{"userId": "u2", "status": "open"}))
	require.NoError(t, s.Set(ctx, "cases", "c3", map[string]any{"userId": "u1", "status": "closed"}))

	docs, err := s.Query(ctx, "cases", "userId", "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Query(ctx, "cases", "userId", "nobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
