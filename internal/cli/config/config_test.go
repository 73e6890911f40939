package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultUploadsDir, cfg.UploadsDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.False(t, cfg.Verbose)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\nuploads_dir: /tmp/uploads\n"), 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/uploads", cfg.UploadsDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath, "unset keys keep defaults")
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\n"), 0o600))

	t.Setenv("SETTLEMENT_PORT", "9090")
	t.Setenv("SETTLEMENT_GEMINI_API_KEY", "env-key")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Setenv("SETTLEMENT_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	flags.String("state", DefaultStateFile, "")
	flags.String("api-key", "", "")
	require.NoError(t, flags.Parse([]string{"--port=7070", "--state=/tmp/s.db", "--api-key=flag-key"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "/tmp/s.db", cfg.StatePath)
	assert.Equal(t, "flag-key", cfg.GeminiAPIKey)
}

func TestUnchangedFlagsIgnored(t *testing.T) {
	t.Setenv("SETTLEMENT_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port, "flag default must not shadow env var")
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "stock-key")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "stock-key", cfg.GeminiAPIKey)
}
