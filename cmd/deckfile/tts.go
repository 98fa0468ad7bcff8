package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
	"github.com/deckfile/deckfile/internal/session"
	"github.com/deckfile/deckfile/internal/tts"
)

func newTTSCmd() *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "tts [session-id]",
		Short: "Synthesize audio for the notes an import session touched",
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

			noteIDs := sessionNoteIDs(sess)
			if len(noteIDs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Session touched no notes; nothing to synthesize")
				return nil
			}

			dbCtx, err := database.CreateDatabase("")
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			store := collection.NewSQLiteStore(dbCtx)
			runner := tts.NewRunner(store, tts.NewClient(settings.TTS), settings.TTS, config.GetMediaDir())

			out := cmd.OutOrStdout()
			result, err := runner.Run(context.Background(), noteIDs, voice, nil, func(done, total int) {
				fmt.Fprintf(out, "\rSynthesizing %d/%d", done, total)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Audio for session %s: %d generated, %d skipped\n",
				sess.SessionID, result.Generated, result.Skipped)
			for _, ttsErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", ttsErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (default from settings)")

	return cmd
}

// sessionNoteIDs collects the distinct notes a session created or updated,
// in first-seen order.
func sessionNoteIDs(sess *session.ImportSession) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, item := range sess.Items {
		switch item.Action {
		case session.ActionAdded, session.ActionUpdated, session.ActionManualUpdate, session.ActionManualDuplicate:
			if item.NoteID != 0 && !seen[item.NoteID] {
				seen[item.NoteID] = true
				ids = append(ids, item.NoteID)
			}
		}
	}
	return ids
}
