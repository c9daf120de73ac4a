package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjury/tribunal/pkg/llm"
	"github.com/openjury/tribunal/pkg/store"
)

type fakeAnalyzer struct {
	analysis map[string]any
	err      error
	prompts  []string
}

func (f *fakeAnalyzer) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("intake never uses free-text generation")
}

func (f *fakeAnalyzer) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema) (map[string]any, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func violationAnalysis() map[string]any {
	return map[string]any{
		"isViolation":       true,
		"violationType":     "Harassment",
		"relevantLaws":      "Anti-harassment statutes",
		"assessmentSummary": "The post targets a named individual.",
	}
}

func testRequest() FlagRequest {
	return FlagRequest{
		PostContent:      "flagged harassment post",
		VictimInfo:       "named individual",
		UserID:           "user-1",
		VictimEthAddress: "0x1111111111111111111111111111111111111111",
	}
}

func TestFlagRequestValidate(t *testing.T) {
	req := testRequest()
	assert.NoError(t, req.Validate())

	missing := testRequest()
	missing.PostContent = ""
	assert.Error(t, missing.Validate())

	missing = testRequest()
	missing.UserID = ""
	assert.Error(t, missing.Validate())
}

func TestFlagPostViolationOpensCase(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	svc := NewService(&fakeAnalyzer{analysis: violationAnalysis()}, docs, "cases", "tribunal-test")

	result, err := svc.FlagPost(ctx, testRequest())
	require.NoError(t, err)
	assert.True(t, result.IsViolation)
	assert.NotEmpty(t, result.CaseID)

	doc, err := docs.Get(ctx, "cases", result.CaseID)
	require.NoError(t, err)
	assert.Equal(t, StatusViolationDetected, doc["status"])
	assert.Equal(t, "flagged harassment post", doc["postContent"])
	assert.Equal(t, "tribunal-test", doc["appId"])

	analysis, ok := doc["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Harassment", analysis["violationType"])
}

func TestFlagPostNoViolationClosesCase(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	svc := NewService(&fakeAnalyzer{analysis: map[string]any{
		"isViolation":   false,
		"violationType": "None",
	}}, docs, "cases", "tribunal-test")

	result, err := svc.FlagPost(ctx, testRequest())
	require.NoError(t, err)
	assert.False(t, result.IsViolation)
	assert.Equal(t, StatusClosedNoViolation, result.CaseDetails["status"])

	doc, err := docs.Get(ctx, "cases", result.CaseID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosedNoViolation, doc["status"])
	assert.Equal(t, "flagged harassment post", doc["postContent"], "closing must preserve the case body")
}

func TestFlagPostAnalyzerFailureIsFatal(t *testing.T) {
	docs := store.NewMemoryStore()
	svc := NewService(&fakeAnalyzer{err: errors.New("model unavailable")}, docs, "cases", "tribunal-test")

	_, err := svc.FlagPost(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post analyzer failed")

	docsForUser, err := docs.Query(context.Background(), "cases", "userId", "user-1")
	require.NoError(t, err)
	assert.Empty(t, docsForUser, "no case opens when analysis fails")
}

func TestFlagPostRejectsInvalidRequest(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: violationAnalysis()}
	svc := NewService(analyzer, store.NewMemoryStore(), "cases", "tribunal-test")

	_, err := svc.FlagPost(context.Background(), FlagRequest{UserID: "user-1"})
	require.Error(t, err)
	assert.Empty(t, analyzer.prompts, "invalid requests never reach the analyzer")
}

func TestAnalyzePromptIncludesContent(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: violationAnalysis()}
	svc := NewService(analyzer, store.NewMemoryStore(), "", "tribunal-test")
	assert.Equal(t, "cases", svc.Collection(), "empty collection falls back to default")

	_, err := svc.FlagPost(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, analyzer.prompts, 1)
	assert.Contains(t, analyzer.prompts[0], "flagged harassment post")
}
