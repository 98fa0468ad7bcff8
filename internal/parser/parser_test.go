package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func defaultOptions() Options {
	return Options{DeckLinePrefix: "//", AllowASCIIColon: true}
}

func TestParseTextBasicDocument(t *testing.T) {
	text := strings.Join([]string{
		"//Unit1::Grammar",
		"问答题：",
		"What is a verb?,A doing word",
		"What is a noun?,A naming word",
		"填空题：",
		"The cat ___ on the mat,sat",
	}, "\n")

	result := ParseText(text, defaultOptions())

	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %#v", result.Warnings)
	}
	if len(result.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result.Sections))
	}

	first := result.Sections[0]
	if first.DeckName != "Unit1::Grammar" || first.NoteType != "问答题" {
		t.Fatalf("unexpected section context: %+v", first)
	}
	if first.StartLineNo != 2 {
		t.Fatalf("expected section to start at line 2, got %d", first.StartLineNo)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(first.Rows))
	}
	if !reflect.DeepEqual(first.Rows[0].Fields, []string{"What is a verb?", "A doing word"}) {
		t.Fatalf("unexpected fields: %#v", first.Rows[0].Fields)
	}
	if first.Rows[1].LineNo != 4 {
		t.Fatalf("expected line 4, got %d", first.Rows[1].LineNo)
	}

	second := result.Sections[1]
	if second.NoteType != "填空题" || len(second.Rows) != 1 {
		t.Fatalf("unexpected second section: %+v", second)
	}
	if result.RowCount() != 3 {
		t.Fatalf("expected 3 rows total, got %d", result.RowCount())
	}
}

func TestParseTextInlineRowAfterTypeMarker(t *testing.T) {
	text := "//Deck\n问答题: \"Hello, world\",\"你好\"\n"

	result := ParseText(text, defaultOptions())

	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	section := result.Sections[0]
	if section.NoteType != "问答题" {
		t.Fatalf("expected type 问答题, got %q", section.NoteType)
	}
	if len(section.Rows) != 1 {
		t.Fatalf("expected inline row to be attached, got %d rows", len(section.Rows))
	}
	row := section.Rows[0]
	if row.LineNo != 2 {
		t.Fatalf("inline row should use the marker's line number, got %d", row.LineNo)
	}
	if !reflect.DeepEqual(row.Fields, []string{"Hello, world", "你好"}) {
		t.Fatalf("unexpected inline fields: %#v", row.Fields)
	}
}

func TestTrySplitTypeLineDisambiguation(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		allowASCII bool
		wantOK     bool
		wantName   string
		wantRest   string
	}{
		{
			name:     "full-width colon with quoted rest",
			line:     `标题: "A,B",C`,
			wantOK:   true,
			wantName: "标题",
			wantRest: `"A,B",C`,
		},
		{
			name:   "colon after leading comma is a data row",
			line:   "A,B,标题:C",
			wantOK: false,
		},
		{
			name:     "plain type marker",
			line:     "问答题：",
			wantOK:   true,
			wantName: "问答题",
			wantRest: "",
		},
		{
			name:   "colon inside quotes is ignored",
			line:   `"a:b",c`,
			wantOK: false,
		},
		{
			name:     "escaped quotes do not close the span",
			line:     `"say ""a:b""",x: "y"`,
			wantOK:   true,
			wantName: `"say ""a:b""",x`,
			wantRest: `"y"`,
		},
		{
			name:   "ASCII colon rejected when not allowed",
			line:   "Basic: value",
			wantOK: false,
		},
		{
			name:     "empty name still classifies as type marker",
			line:     "：rest",
			wantOK:   true,
			wantName: "",
			wantRest: "rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowASCII := tt.allowASCII
			if tt.name != "ASCII colon rejected when not allowed" {
				allowASCII = true
			}
			name, rest, ok := trySplitTypeLine(tt.line, allowASCII)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if name != tt.wantName {
				t.Fatalf("name = %q, want %q", name, tt.wantName)
			}
			if rest != tt.wantRest {
				t.Fatalf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestParseTextSplitDisambiguationWithinDocument(t *testing.T) {
	text := strings.Join([]string{
		"//Deck",
		"问答题：",
		"A,B,标题:C",
	}, "\n")

	result := ParseText(text, defaultOptions())
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	rows := result.Sections[0].Rows
	if len(rows) != 1 {
		t.Fatalf("expected the ambiguous line to be a data row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0].Fields, []string{"A", "B", "标题:C"}) {
		t.Fatalf("unexpected fields: %#v", rows[0].Fields)
	}
}

func TestParseTextWarnings(t *testing.T) {
	text := strings.Join([]string{
		"orphan,row",  // no deck, no type
		"//",          // deck line without a name
		"问答题：",        // type before any deck
		"a,b",         // row while deck context is missing
		`"unclosed,x`, // malformed quoting
		"//Deck",      // resets type context
		"stray,row",   // deck set but type cleared
	}, "\n")

	result := ParseText(text, defaultOptions())

	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	// Fail-soft: the deckless section opens, but rows are dropped until a
	// deck is declared.
	if result.Sections[0].DeckName != "" || len(result.Sections[0].Rows) != 0 {
		t.Fatalf("unexpected section: %+v", result.Sections[0])
	}

	wantWarnings := []int{1, 2, 3, 4, 5, 7}
	if len(result.Warnings) != len(wantWarnings) {
		t.Fatalf("expected %d warnings, got %#v", len(wantWarnings), result.Warnings)
	}
	for i, lineNo := range wantWarnings {
		if result.Warnings[i].LineNo != lineNo {
			t.Fatalf("warning %d: expected line %d, got %d (%s)",
				i, lineNo, result.Warnings[i].LineNo, result.Warnings[i].Message)
		}
	}
}

func TestParseTextRepeatedMarkersOpenNewSections(t *testing.T) {
	text := strings.Join([]string{
		"//Deck",
		"问答题：",
		"a,1",
		"问答题：",
		"b,2",
	}, "\n")

	result := ParseText(text, defaultOptions())
	if len(result.Sections) != 2 {
		t.Fatalf("a repeated type marker must open a new section, got %d", len(result.Sections))
	}
	if len(result.Sections[0].Rows) != 1 || len(result.Sections[1].Rows) != 1 {
		t.Fatalf("rows landed in the wrong sections: %+v", result.Sections)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.txt")
	if err := os.WriteFile(path, []byte("//Deck\n问答题：\na,b\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := ParseFile(path, defaultOptions())
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	if result.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", result.RowCount())
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.txt"), defaultOptions()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := ParseFile("", defaultOptions()); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
