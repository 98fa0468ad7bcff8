package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
	"github.com/deckfile/deckfile/internal/importer"
	"github.com/deckfile/deckfile/internal/session"
)

func newRollbackCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rollback [session-id]",
		Short: "Undo every mutation an import session performed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings("")
			if err != nil {
				return err
			}

			sessions := session.NewFileStore(config.GetSessionsDir())

			var sess *session.ImportSession
			if len(args) == 1 {
				sess, err = sessions.Load(args[0])
			} else {
				sess, err = sessions.LoadLatest()
			}
			if err != nil {
				return err
			}
			if sess == nil {
				return fmt.Errorf("no import session found")
			}

			if !force {
				message := fmt.Sprintf("Roll back session %s (%d ledger entries from %s)? (y/N) ",
					sess.SessionID, len(sess.Items), sess.SourcePath)
				ok, err := confirm(cmd, message)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Rollback cancelled")
					return nil
				}
			}

			dbCtx, err := database.CreateDatabase("")
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			engine := importer.NewEngine(collection.NewSQLiteStore(dbCtx), sessions, settings)
			result, err := engine.RollbackSession(context.Background(), sess)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back session %s: %d deleted, %d restored\n",
				sess.SessionID, result.Deleted, result.Restored)
			for _, rollbackErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", rollbackErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}

func confirm(cmd *cobra.Command, message string) (bool, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.ErrOrStderr(), message)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "y", nil
}
