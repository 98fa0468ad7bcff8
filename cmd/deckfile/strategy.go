package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
	"github.com/deckfile/deckfile/internal/importer"
	"github.com/deckfile/deckfile/internal/session"
)

func newStrategyCmd() *cobra.Command {
	var (
		lines []int
		mode  string
	)

	cmd := &cobra.Command{
		Use:   "strategy <session-id>",
		Short: "Change how specific lines of a past import resolved their duplicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(lines) == 0 {
				return fmt.Errorf("at least one --line is required")
			}
			target, err := session.ParseDuplicateMode(mode)
			if err != nil {
				return err
			}

			settings, err := config.LoadSettings("")
			if err != nil {
				return err
			}

			dbCtx, err := database.CreateDatabase("")
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			sessions := session.NewFileStore(config.GetSessionsDir())
			engine := importer.NewEngine(collection.NewSQLiteStore(dbCtx), sessions, settings)

			result, err := engine.ApplyDuplicateStrategy(context.Background(), args[0], lines, target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to session %s: %d changed, %d already current\n",
				target, args[0], result.Applied, result.Skipped)
			for _, strategyErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", strategyErr)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&lines, "line", nil, "Source line number to change (repeatable)")
	cmd.Flags().StringVar(&mode, "mode", "", "Target policy: duplicate, update, or skip")
	_ = cmd.MarkFlagRequired("mode")

	return cmd
}
