package main

import (
	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/logger"
	"github.com/deckfile/deckfile/internal/parser"
)

var rootCmd = &cobra.Command{
	Use:   "deckfile",
	Short: "deckfile - import mixed-format flashcard documents into a card collection",
	Long: "deckfile parses documents that interleave deck markers, type markers, and CSV rows,\n" +
		"imports them into a local card collection under a duplicate policy, and keeps a\n" +
		"replayable session ledger for later strategy changes and rollback.",
}

var logLevel string

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Init(logLevel)
	}

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newStrategyCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newTTSCmd())
	rootCmd.AddCommand(newMCPCmd())
}

func parserOptions(deckLinePrefix string, allowASCIIColon bool) parser.Options {
	return parser.Options{
		DeckLinePrefix:  deckLinePrefix,
		AllowASCIIColon: allowASCIIColon,
	}
}
