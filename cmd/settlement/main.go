// Package main provides the CLI for the AI settlement assistant.
package main

import (
	"os"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
