package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "tribunal-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	_, err := s.Get(ctx, "cases", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{
		"status":      "Violation Detected",
		"postContent": "flagged post",
	}))

	doc, err := s.Get(ctx, "cases", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Violation Detected", doc["status"])
}

func TestSQLiteStoreSetMerges(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{
		"status":      "Violation Detected",
		"postContent": "flagged post",
	}))
	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{
		"status":       "COMPLETED",
		"finalFineWei": "750000000000000000",
	}))

	doc, err := s.Get(ctx, "cases", "c1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", doc["status"])
	assert.Equal(t, "flagged post", doc["postContent"])
	assert.Equal(t, "750000000000000000", doc["finalFineWei"])
}

func TestSQLiteStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Set(ctx, "cases", "c1", map[string]any{"userId": "u1"}))
	require.NoError(t, s.Set(ctx, "cases", "c2", map[string]any{"userId": "u2"}))
	require.NoError(t, s.Set(ctx, "other", "c3", map[string]any{"userId": "u1"}))

	docs, err := s.Query(ctx, "cases", "userId", "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
