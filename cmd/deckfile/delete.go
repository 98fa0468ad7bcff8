package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/session"
)

func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete an import session's ledger file",
		Long: "Delete an import session's ledger file. The collection is not touched;\n" +
			"use rollback first if the session's changes should be undone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				message := fmt.Sprintf("Delete session %s? Its changes can no longer be rolled back. (y/N) ", args[0])
				ok, err := confirm(cmd, message)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			store := session.NewFileStore(config.GetSessionsDir())
			if err := store.Delete(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
