package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 1000, cfg.Agent.BrainSteps)
	assert.Equal(t, 20, cfg.Agent.NavigatorSteps)
	assert.Equal(t, 20, cfg.Agent.ExtractorSteps)
	assert.Equal(t, "csv", cfg.Agent.TableFormat)
	assert.True(t, cfg.Agent.Screenshots)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Empty(t, cfg.Artifacts.Bucket)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "webscout.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
model:
  provider: anthropic
  name: claude-sonnet-4-0
agent:
  navigator_steps: 5
  table_format: xlsx
browser:
  timeout: 10s
artifacts:
  bucket: tables
`), 0o600))

	t.Setenv("WEBSCOUT_AGENT_EXTRACTOR_STEPS", "7")
	t.Setenv("WEBSCOUT_LOGGER_LEVEL", "debug")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "claude-sonnet-4-0", cfg.Model.Name)
	assert.Equal(t, 5, cfg.Agent.NavigatorSteps)
	assert.Equal(t, 7, cfg.Agent.ExtractorSteps)
	assert.Equal(t, "xlsx", cfg.Agent.TableFormat)
	assert.Equal(t, 10*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "tables", cfg.Artifacts.Bucket)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	v := NewViper("")
	v.Set("model.provider", "cohere")
	v.Set("agent.table_format", "parquet")
	v.Set("agent.navigator_steps", 0)

	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.provider")
	assert.Contains(t, err.Error(), "agent.table_format")
	assert.Contains(t, err.Error(), "step budgets")
}

func TestDump_OmitsSecrets(t *testing.T) {
	v := NewViper("")
	v.Set("model.api_key", "sk-secret")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.Model.APIKey)

	out, err := Dump(cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "brain_steps: 1000")
	assert.Contains(t, out, "provider: openai")
}
