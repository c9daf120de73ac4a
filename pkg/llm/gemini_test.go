package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "test_assessment",
	Definition: `{
		"type": "object",
		"properties": {
			"verdict": {"type": "string", "enum": ["Guilty", "Not Guilty"]},
			"score": {"type": "integer", "minimum": 0, "maximum": 100}
		},
		"required": ["verdict"]
	}`,
}

// geminiStub serves canned candidate text for every generateContent call.
func geminiStub(t *testing.T, candidateText string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": candidateText}},
				},
			}},
		})
	}))
}

func TestGeminiGenerate(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, "The jury should weigh intent.", &captured)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	out, err := c.Generate(context.Background(), "deliberate on the case")
	require.NoError(t, err)
	assert.Equal(t, "The jury should weigh intent.", out)

	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "deliberate on the case", captured.Contents[0].Parts[0].Text)
	assert.Nil(t, captured.GenerationConfig)
}

func TestGeminiGenerateStructured(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, `{"verdict": "Guilty", "score": 42}`, &captured)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	out, err := c.GenerateStructured(context.Background(), "cast your vote", testSchema)
	require.NoError(t, err)
	assert.Equal(t, "Guilty", out["verdict"])
	assert.Equal(t, float64(42), out["score"])

	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

func TestGeminiGenerateStructuredStripsFences(t *testing.T) {
	srv := geminiStub(t, "```json\n{\"verdict\": \"Not Guilty\"}\n```", nil)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	out, err := c.GenerateStructured(context.Background(), "cast your vote", testSchema)
	require.NoError(t, err)
	assert.Equal(t, "Not Guilty", out["verdict"])
}

func TestGeminiGenerateStructuredRejectsNonConformant(t *testing.T) {
	srv := geminiStub(t, `{"verdict": "Maybe"}`, nil)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	_, err := c.GenerateStructured(context.Background(), "cast your vote", testSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not conform")
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	_, err := c.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash").WithBaseURL(srv.URL)
	_, err := c.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty candidates")
}
