// Package tags merges row tags with deck-hierarchy prefixes and type tags.
package tags

import (
	"regexp"
	"strings"
)

// Separator is the hierarchy separator used by decks and tree tags.
const Separator = "::"

// NormalizeDeckTag derives the chapter tag from a deck name: the last path
// segment with a configurable ordinal prefix (e.g. "01-") stripped. An
// invalid strip pattern falls back to the raw segment.
func NormalizeDeckTag(deckName, stripPattern string) string {
	if deckName == "" {
		return ""
	}
	if strings.Contains(deckName, Separator) {
		parts := strings.Split(deckName, Separator)
		deckName = parts[len(parts)-1]
	}
	if stripPattern != "" {
		if re, err := regexp.Compile(stripPattern); err == nil {
			deckName = re.ReplaceAllString(deckName, "")
		}
	}
	return strings.TrimSpace(deckName)
}

// Split breaks the raw tag text from an extra CSV column into individual
// tags. Tabs are normalized to the splitter first.
func Split(text, splitter string) []string {
	if text == "" {
		return nil
	}
	if splitter == "" {
		splitter = " "
	}
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\t", splitter))
	var result []string
	for _, item := range strings.Split(normalized, splitter) {
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// MergeOptions configures a Merge call for one section.
type MergeOptions struct {
	// DeckTag is the normalized chapter tag for the owning deck.
	DeckTag string
	// NoteType names the owning type; used to build the type tag.
	NoteType string
	// TypeTagPrefix is the full prefix including the separator, e.g. "题型::".
	TypeTagPrefix string
	AddChapterTag bool
	AddTypeTag    bool
}

// Merge produces the final tag set for one row: row tags get the deck
// hierarchy spliced in, the chapter tag and type tag are appended when
// configured, and duplicates are removed preserving first-seen order.
func Merge(rowTags []string, opts MergeOptions) []string {
	deckParts := splitParts(opts.DeckTag)

	var merged []string
	for _, raw := range rowTags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		switch {
		case isTypeTag(tag, opts.TypeTagPrefix):
			merged = append(merged, tag)
		case len(deckParts) == 0:
			merged = append(merged, tag)
		case tag == opts.DeckTag || strings.HasPrefix(tag, opts.DeckTag+Separator):
			merged = append(merged, tag)
		default:
			merged = append(merged, prefixWithDeck(tag, deckParts))
		}
	}

	if opts.AddChapterTag && opts.DeckTag != "" {
		merged = append(merged, opts.DeckTag)
	}
	if opts.AddTypeTag {
		if built := buildTypeTag(opts.NoteType, opts.TypeTagPrefix); built != "" && !containsTypeTag(merged, opts.TypeTagPrefix) {
			merged = append(merged, built)
		}
	}

	return dedupe(merged)
}

// prefixWithDeck splices the deck hierarchy onto a tag. When the tail of the
// deck path overlaps the head of the tag path, the overlap is collapsed so
// "Unit1::Grammar" + "Grammar::Verbs" yields "Unit1::Grammar::Verbs" rather
// than a doubled segment.
func prefixWithDeck(tag string, deckParts []string) string {
	tagParts := splitParts(tag)
	if len(tagParts) == 0 {
		return tag
	}
	var mergedParts []string
	if len(tagParts) <= len(deckParts) && partsEqual(deckParts[:len(tagParts)], tagParts) {
		mergedParts = deckParts
	} else if overlap := deckOverlap(deckParts, tagParts); overlap > 0 {
		mergedParts = append(append([]string{}, deckParts[:len(deckParts)-overlap]...), tagParts...)
	} else {
		mergedParts = append(append([]string{}, deckParts...), tagParts...)
	}
	return strings.Join(mergedParts, Separator)
}

// deckOverlap returns the length of the longest suffix of deckParts equal to
// a prefix of tagParts.
func deckOverlap(deckParts, tagParts []string) int {
	maxSize := len(deckParts)
	if len(tagParts) < maxSize {
		maxSize = len(tagParts)
	}
	for size := maxSize; size > 0; size-- {
		if partsEqual(deckParts[len(deckParts)-size:], tagParts[:size]) {
			return size
		}
	}
	return 0
}

func splitParts(tag string) []string {
	if tag == "" {
		return nil
	}
	var parts []string
	for _, item := range strings.Split(tag, Separator) {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func partsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isTypeTag(tag, prefix string) bool {
	return prefix != "" && strings.HasPrefix(tag, prefix)
}

func containsTypeTag(tags []string, prefix string) bool {
	for _, tag := range tags {
		if isTypeTag(tag, prefix) {
			return true
		}
	}
	return false
}

func buildTypeTag(noteType, prefix string) string {
	cleaned := strings.TrimSpace(noteType)
	if cleaned == "" {
		return ""
	}
	if isTypeTag(cleaned, prefix) {
		return cleaned
	}
	return prefix + cleaned
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var result []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
