package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructured(t *testing.T) {
	v := newValidator()

	out, err := v.parseStructured(`{"verdict": "Guilty", "score": 10}`, testSchema)
	require.NoError(t, err)
	assert.Equal(t, "Guilty", out["verdict"])
}

func TestParseStructuredInvalidJSON(t *testing.T) {
	v := newValidator()

	_, err := v.parseStructured(`{"verdict": `, testSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseStructuredMissingRequired(t *testing.T) {
	v := newValidator()

	_, err := v.parseStructured(`{"score": 10}`, testSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not conform")
}

func TestParseStructuredCachesCompiledSchema(t *testing.T) {
	v := newValidator()

	_, err := v.parseStructured(`{"verdict": "Guilty"}`, testSchema)
	require.NoError(t, err)
	compiled, ok := v.compiled[testSchema.Name]
	require.True(t, ok)

	_, err = v.parseStructured(`{"verdict": "Not Guilty"}`, testSchema)
	require.NoError(t, err)
	assert.Same(t, compiled, v.compiled[testSchema.Name])
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences(`  {"a": 1}  `))
}
