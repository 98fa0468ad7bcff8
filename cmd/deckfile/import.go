package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
	"github.com/deckfile/deckfile/internal/importer"
	"github.com/deckfile/deckfile/internal/parser"
	"github.com/deckfile/deckfile/internal/session"
)

func newImportCmd() *cobra.Command {
	var (
		mode        string
		format      string
		defineTypes []string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a deckfile document into the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings("")
			if err != nil {
				return err
			}
			if mode != "" {
				parsed, err := session.ParseDuplicateMode(mode)
				if err != nil {
					return err
				}
				settings.DuplicateMode = parsed.String()
			}

			parsed, err := parser.ParseFile(args[0], parserOptions(settings.DeckLinePrefix, settings.TypeLineAllowASCIIColon))
			if err != nil {
				return err
			}
			for _, warning := range parsed.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: line %d: %s\n", warning.LineNo, warning.Message)
			}

			dbCtx, err := database.CreateDatabase("")
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			ctx := context.Background()
			store := collection.NewSQLiteStore(dbCtx)
			for _, definition := range defineTypes {
				name, fields, err := parseTypeDefinition(definition)
				if err != nil {
					return err
				}
				if _, err := store.EnsureNoteType(ctx, name, fields); err != nil {
					return err
				}
			}

			sessions := session.NewFileStore(config.GetSessionsDir())
			engine := importer.NewEngine(store, sessions, settings)

			result, err := engine.Import(ctx, parsed, args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			case "text":
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d added, %d updated, %d skipped (session %s)\n",
					args[0], result.Added, result.Updated, result.Skipped, result.SessionID)
				for _, importErr := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", importErr)
				}
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: text, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Duplicate policy: duplicate, update, or skip (default from settings)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringArrayVar(&defineTypes, "define-type", nil, "Create a note type before importing, e.g. '问答题:Front,Back,Extra'")

	return cmd
}

// parseTypeDefinition splits a --define-type value of the form
// "Name:Field1,Field2" into its name and field list.
func parseTypeDefinition(definition string) (string, []string, error) {
	parts := strings.SplitN(definition, ":", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", nil, fmt.Errorf("invalid type definition %q (expected 'Name:Field1,Field2')", definition)
	}

	var fields []string
	for _, field := range strings.Split(parts[1], ",") {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("type definition %q has no fields", definition)
	}
	return strings.TrimSpace(parts[0]), fields, nil
}
