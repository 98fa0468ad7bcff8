package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/session"
)

func newSessionsCmd() *cobra.Command {
	var (
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded import sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := session.NewFileStore(config.GetSessionsDir())
			sessions, err := store.ListAll()
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}

			switch format {
			case "json":
				return outputSessionsJSON(cmd, sessions)
			case "table":
				outputSessionsTable(cmd, sessions)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of sessions to show (0 = all)")

	return cmd
}

type sessionOutputEntry struct {
	SessionID     string `json:"session_id"`
	Created       string `json:"created"`
	SourcePath    string `json:"source_path"`
	DuplicateMode string `json:"duplicate_mode"`
	Items         int    `json:"items"`
	Overrides     int    `json:"overrides,omitempty"`
}

func outputSessionsJSON(cmd *cobra.Command, sessions []*session.ImportSession) error {
	output := make([]sessionOutputEntry, 0, len(sessions))
	for _, sess := range sessions {
		output = append(output, sessionOutputEntry{
			SessionID:     sess.SessionID,
			Created:       sess.CreatedAt.Format(time.RFC3339),
			SourcePath:    sess.SourcePath,
			DuplicateMode: sess.DuplicateMode,
			Items:         len(sess.Items),
			Overrides:     len(sess.StrategyOverrides),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func getTerminalWidth() int {
	// Try to get terminal width from stdout
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	// Default width if terminal size cannot be determined
	return 80
}

// wrapString wraps a string to fit within maxWidth, accounting for multi-byte
// characters.
func wrapString(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range s {
		charWidth := runewidth.RuneWidth(r)
		if currentWidth+charWidth > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}
		currentLine.WriteRune(r)
		currentWidth += charWidth
	}

	if currentLine.Len() > 0 {
		result.WriteString(currentLine.String())
	}
	return result.String()
}

func outputSessionsTable(cmd *cobra.Command, sessions []*session.ImportSession) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// The session id, created, mode, and items columns have predictable
	// widths; whatever terminal width remains goes to the source path.
	termWidth := getTerminalWidth()
	sourceWidth := termWidth - 17 - 19 - 9 - 5 - 5*3
	if sourceWidth < 15 {
		sourceWidth = 15
	}

	t.AppendHeader(table.Row{"Session", "Created", "Source", "Mode", "Items"})
	for _, sess := range sessions {
		t.AppendRow(table.Row{
			sess.SessionID,
			sess.CreatedAt.Format("2006-01-02 15:04:05"),
			wrapString(sess.SourcePath, sourceWidth),
			sess.DuplicateMode,
			len(sess.Items),
		})
	}

	t.Render()
}
