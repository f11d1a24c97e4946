// Package main is the entry point for the studyproxy service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of package globals, so tests can build their own.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "studyproxy",
		Short: "HTTP backend for the study app's AI and waitlist endpoints",
		Long: `studyproxy serves the study app's /api endpoints: it validates requests,
forwards them to the configured LLM provider, and manages the pre-launch
waitlist in the hosted database.

Examples:
  studyproxy serve --config config.yaml
  studyproxy migrate up`,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
	)

	return root
}
