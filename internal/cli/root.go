// Package cli provides the command-line interface for the settlement assistant.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/cli/commands"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "settlement",
		Short: "AI Settlement Assistant - supplier spreadsheet normalization",
		Long: `The settlement assistant ingests heterogeneous supplier spreadsheets,
maps their columns onto a target schema with AI assistance, applies
per-field transformation rules and exports normalized settlement data.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			commands.SetConfig(cfg)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
AI Settlement Assistant
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./settlement.yaml)")
	rootCmd.PersistentFlags().Int("port", config.DefaultPort, "HTTP port for the API server")
	rootCmd.PersistentFlags().String("uploads-dir", config.DefaultUploadsDir, "Directory for uploaded workbooks")
	rootCmd.PersistentFlags().String("state", config.DefaultStateFile, "Path to the template database")
	rootCmd.PersistentFlags().String("api-key", "", "Gemini API key (empty: deterministic fallback matching)")
	rootCmd.PersistentFlags().String("gemini-model", config.DefaultGeminiModel, "Gemini model name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewTemplatesCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
