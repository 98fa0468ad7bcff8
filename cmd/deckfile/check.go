package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/parser"
)

func newCheckCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Parse a deckfile document and report sections and warnings without importing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings("")
			if err != nil {
				return err
			}

			parsed, err := parser.ParseFile(args[0], parserOptions(settings.DeckLinePrefix, settings.TypeLineAllowASCIIColon))
			if err != nil {
				return err
			}

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(checkOutput(parsed))
			case "text":
				out := cmd.OutOrStdout()
				for _, section := range parsed.Sections {
					deckName := section.DeckName
					if deckName == "" {
						deckName = "(no deck)"
					}
					fmt.Fprintf(out, "line %d: %s / %s: %d rows\n",
						section.StartLineNo, deckName, section.NoteType, len(section.Rows))
				}
				for _, warning := range parsed.Warnings {
					fmt.Fprintf(out, "warning: line %d: %s\n", warning.LineNo, warning.Message)
				}
				fmt.Fprintf(out, "%d sections, %d rows, %d warnings\n",
					len(parsed.Sections), parsed.RowCount(), len(parsed.Warnings))
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: text, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

type checkSectionOutput struct {
	DeckName    string `json:"deck_name"`
	NoteType    string `json:"note_type"`
	Rows        int    `json:"rows"`
	StartLineNo int    `json:"start_line_no"`
}

type checkWarningOutput struct {
	Message string `json:"message"`
	LineNo  int    `json:"line_no"`
}

type checkResultOutput struct {
	Sections []checkSectionOutput `json:"sections"`
	Warnings []checkWarningOutput `json:"warnings"`
	Rows     int                  `json:"rows"`
}

func checkOutput(parsed *parser.Result) checkResultOutput {
	out := checkResultOutput{
		Sections: []checkSectionOutput{},
		Warnings: []checkWarningOutput{},
		Rows:     parsed.RowCount(),
	}
	for _, section := range parsed.Sections {
		out.Sections = append(out.Sections, checkSectionOutput{
			DeckName:    section.DeckName,
			NoteType:    section.NoteType,
			Rows:        len(section.Rows),
			StartLineNo: section.StartLineNo,
		})
	}
	for _, warning := range parsed.Warnings {
		out.Warnings = append(out.Warnings, checkWarningOutput{Message: warning.Message, LineNo: warning.LineNo})
	}
	return out
}
