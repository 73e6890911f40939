// Package commands implements the settlement CLI subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/cli/config"
)

var currentConfig *config.Config

// SetConfig stores the loaded configuration for the subcommands.
func SetConfig(cfg *config.Config) {
	currentConfig = cfg
}

// GetConfig returns the loaded configuration, or defaults when none was
// loaded (direct command construction in tests).
func GetConfig() *config.Config {
	if currentConfig != nil {
		return currentConfig
	}
	return &config.Config{
		Port:        config.DefaultPort,
		UploadsDir:  config.DefaultUploadsDir,
		StatePath:   config.DefaultStateFile,
		GeminiModel: config.DefaultGeminiModel,
	}
}

// newLogger builds the process logger from the configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
