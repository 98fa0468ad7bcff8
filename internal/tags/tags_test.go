package tags

import (
	"reflect"
	"testing"
)

func TestNormalizeDeckTag(t *testing.T) {
	tests := []struct {
		name     string
		deckName string
		pattern  string
		want     string
	}{
		{"plain name", "Grammar", `^\d+[-_.]+`, "Grammar"},
		{"last segment of hierarchy", "Unit1::02-Grammar", `^\d+[-_.]+`, "Grammar"},
		{"ordinal prefix stripped", "03_Vocab", `^\d+[-_.]+`, "Vocab"},
		{"invalid pattern falls back", "01-Vocab", `([`, "01-Vocab"},
		{"empty deck", "", `^\d+[-_.]+`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDeckTag(tt.deckName, tt.pattern); got != tt.want {
				t.Fatalf("NormalizeDeckTag(%q) = %q, want %q", tt.deckName, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	if got := Split("a b  c", " "); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected split: %#v", got)
	}
	if got := Split("a\tb", " "); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("tabs should be normalized: %#v", got)
	}
	if got := Split("", " "); got != nil {
		t.Fatalf("expected nil for empty text, got %#v", got)
	}
}

func TestMergeOverlapSplice(t *testing.T) {
	got := Merge([]string{"Grammar::Verbs"}, MergeOptions{
		DeckTag:       "Unit1::Grammar",
		NoteType:      "问答题",
		TypeTagPrefix: "题型::",
	})
	want := []string{"Unit1::Grammar::Verbs"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeAppendsChapterAndTypeTags(t *testing.T) {
	got := Merge([]string{"Verbs"}, MergeOptions{
		DeckTag:       "Grammar",
		NoteType:      "问答题",
		TypeTagPrefix: "题型::",
		AddChapterTag: true,
		AddTypeTag:    true,
	})
	want := []string{"Grammar::Verbs", "Grammar", "题型::问答题"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeKeepsExistingPrefixes(t *testing.T) {
	got := Merge([]string{"题型::选择题", "Grammar::Verbs", "Grammar"}, MergeOptions{
		DeckTag:       "Grammar",
		NoteType:      "问答题",
		TypeTagPrefix: "题型::",
		AddChapterTag: true,
		AddTypeTag:    true,
	})
	// The existing type tag suppresses the new one; tags already carrying the
	// deck prefix stay verbatim; the chapter tag is not duplicated.
	want := []string{"题型::选择题", "Grammar::Verbs", "Grammar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeTagIsPrefixOfDeckPath(t *testing.T) {
	got := Merge([]string{"Unit1"}, MergeOptions{
		DeckTag:       "Unit1::Grammar",
		NoteType:      "",
		TypeTagPrefix: "题型::",
	})
	want := []string{"Unit1::Grammar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeNoDeckTag(t *testing.T) {
	got := Merge([]string{"Verbs", "", "Verbs"}, MergeOptions{
		NoteType:      "问答题",
		TypeTagPrefix: "题型::",
		AddTypeTag:    true,
	})
	want := []string{"Verbs", "题型::问答题"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeDisjointPathsConcatenate(t *testing.T) {
	got := Merge([]string{"Extra::Notes"}, MergeOptions{
		DeckTag:       "Unit1::Grammar",
		TypeTagPrefix: "题型::",
	})
	want := []string{"Unit1::Grammar::Extra::Notes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %#v, want %#v", got, want)
	}
}
