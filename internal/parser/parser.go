// Package parser turns mixed-format deckfile text into structured sections.
//
// A deckfile interleaves three kinds of physical lines: deck markers
// ("//Deck::Name"), type markers ("问答题：" optionally followed by inline
// row data), and plain CSV rows. Sections group consecutive rows under the
// (deck, type) context that was current when they appeared.
package parser

import (
	"fmt"
	"os"
	"strings"
)

// Row is a single parsed CSV line.
type Row struct {
	Fields []string
	LineNo int
}

// Section is a maximal run of rows sharing one (deck, type) context. A new
// deck or type marker always opens a new section, even when values repeat.
type Section struct {
	DeckName    string
	NoteType    string
	Rows        []Row
	StartLineNo int
}

// Warning is a non-fatal parse problem tied to a line number.
type Warning struct {
	Message string
	LineNo  int
}

// Result is the parser output. Warnings never abort parsing.
type Result struct {
	Sections []*Section
	Warnings []Warning
}

// Options selects the marker grammar.
type Options struct {
	// DeckLinePrefix marks deck lines, e.g. "//".
	DeckLinePrefix string
	// AllowASCIIColon widens type-marker recognition to ':' in addition to
	// the full-width '：'.
	AllowASCIIColon bool
}

// ParseFile reads and parses a deckfile from disk.
func ParseFile(path string, opts Options) (*Result, error) {
	if path == "" {
		return nil, fmt.Errorf("parser: file path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to read %s: %w", path, err)
	}
	return ParseText(string(data), opts), nil
}

// ParseText parses a full deckfile document.
func ParseText(text string, opts Options) *Result {
	return parseLines(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), opts)
}

func parseLines(lines []string, opts Options) *Result {
	result := &Result{}

	currentDeck := ""
	currentType := ""
	var currentSection *Section

	warn := func(message string, lineNo int) {
		result.Warnings = append(result.Warnings, Warning{Message: message, LineNo: lineNo})
	}

	for index, rawLine := range lines {
		lineNo := index + 1
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if opts.DeckLinePrefix != "" && strings.HasPrefix(line, opts.DeckLinePrefix) {
			deckName := strings.TrimSpace(line[len(opts.DeckLinePrefix):])
			if deckName == "" {
				warn("deck line is missing a name", lineNo)
				currentDeck = ""
				currentType = ""
				currentSection = nil
				continue
			}
			currentDeck = deckName
			// Type context is deck-scoped: a new deck requires a new type marker.
			currentType = ""
			currentSection = nil
			continue
		}

		if typeName, rest, ok := trySplitTypeLine(line, opts.AllowASCIIColon); ok {
			if typeName == "" {
				warn("type line is missing a name", lineNo)
				currentType = ""
				currentSection = nil
				continue
			}
			if currentDeck == "" {
				warn("type line appears before any deck line", lineNo)
			}
			currentType = typeName
			currentSection = &Section{
				DeckName:    currentDeck,
				NoteType:    currentType,
				StartLineNo: lineNo,
			}
			result.Sections = append(result.Sections, currentSection)
			if rest != "" {
				if fields, ok := parseCSVLine(rest); ok {
					currentSection.Rows = append(currentSection.Rows, Row{Fields: fields, LineNo: lineNo})
				} else {
					warn("failed to parse inline row after type marker", lineNo)
				}
			}
			continue
		}

		if currentDeck == "" || currentType == "" || currentSection == nil {
			warn("data row has no deck or type context", lineNo)
			continue
		}
		fields, ok := parseCSVLine(rawLine)
		if !ok {
			warn("failed to parse data row", lineNo)
			continue
		}
		currentSection.Rows = append(currentSection.Rows, Row{Fields: fields, LineNo: lineNo})
	}

	return result
}

// RowCount returns the total number of rows across all sections.
func (r *Result) RowCount() int {
	total := 0
	for _, section := range r.Sections {
		total += len(section.Rows)
	}
	return total
}
