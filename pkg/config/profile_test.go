package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	assert.Equal(t, 2, p.LawyerQueryBudget)
	assert.Equal(t, 1, p.ExpertQueryBudget)
	assert.Equal(t, 3, p.DeliberationRounds)
	assert.Equal(t, 60, p.Retention.TerminalMinutes)
}

func TestLoadProfileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: fast
lawyer_query_budget: 1
deliberation_rounds: 2
pacing:
  phase_ms: 0
  turn_ms: 0
  skip_ms: 0
`), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "fast", p.Name)
	assert.Equal(t, 1, p.LawyerQueryBudget)
	assert.Equal(t, 2, p.DeliberationRounds)
	assert.Zero(t, p.Pacing.PhaseMs)

	// Unset fields keep the standing procedure.
	assert.Equal(t, 1, p.ExpertQueryBudget)
	assert.Equal(t, 4000, p.TranscriptLimit)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deliberation_rounds: 0\n"), 0o600))

	_, err := LoadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberation_rounds")
}

func TestProfileValidate(t *testing.T) {
	p := DefaultProfile()
	p.LawyerQueryBudget = -1
	assert.Error(t, p.Validate())

	p = DefaultProfile()
	p.TranscriptLimit = 0
	assert.Error(t, p.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tribunal")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/tribunal", cfg.DatabaseURL)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel, "model falls back to default")
}
