// Package config loads the settlement CLI configuration.
package config

// Config holds all CLI configuration options.
type Config struct {
	Port         int    `koanf:"port"`
	UploadsDir   string `koanf:"uploads_dir"`
	StatePath    string `koanf:"state_path"`
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`
	Verbose      bool   `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultPort        = 3001
	DefaultUploadsDir  = "uploads"
	DefaultStateFile   = ".settlement/templates.db"
	DefaultGeminiModel = "gemini-2.0-flash"
)
