// Package session persists import sessions as an append-only ledger of
// per-row outcomes, backing strategy re-application and rollback.
package session

import (
	"fmt"
	"time"
)

// Action labels one ledger entry. The first three are recorded during an
// import; the manual variants are appended later by strategy changes.
const (
	ActionAdded           = "added"
	ActionUpdated         = "updated"
	ActionSkipped         = "skipped"
	ActionManualUpdate    = "manual_update"
	ActionManualDuplicate = "manual_duplicate"
)

// DuplicateMode selects how the importer resolves a row whose first field
// matches an existing note.
type DuplicateMode int

const (
	// ModeKeep creates a new note even when duplicates exist.
	ModeKeep DuplicateMode = iota
	// ModeUpdate overwrites the first existing duplicate in place.
	ModeUpdate
	// ModeSkip leaves the collection untouched for duplicated rows.
	ModeSkip
)

// String returns the stable label used in session files and configuration.
func (m DuplicateMode) String() string {
	switch m {
	case ModeUpdate:
		return "update"
	case ModeSkip:
		return "skip"
	default:
		return "duplicate"
	}
}

// ParseDuplicateMode maps a configuration or CLI label to a DuplicateMode.
func ParseDuplicateMode(label string) (DuplicateMode, error) {
	switch label {
	case "duplicate", "keep", "":
		return ModeKeep, nil
	case "update", "overwrite":
		return ModeUpdate, nil
	case "skip":
		return ModeSkip, nil
	default:
		return ModeKeep, fmt.Errorf("unknown duplicate mode %q", label)
	}
}

// Item is one append-only ledger entry. Entries are never mutated after
// creation; corrections are recorded as new entries with a manual action.
type Item struct {
	LineNo           int      `json:"line_no"`
	Action           string   `json:"action"`
	NoteID           int64    `json:"note_id"`
	DeckName         string   `json:"deck_name"`
	NoteType         string   `json:"note_type"`
	Fields           []string `json:"fields"`
	Tags             []string `json:"tags"`
	OldFields        []string `json:"old_fields"`
	OldTags          []string `json:"old_tags"`
	DuplicateNoteIDs []int64  `json:"duplicate_note_ids"`
}

// ImportSession is the full ledger for one import call. Items keep insertion
// order; rollback iterates them in reverse and strategy resolution scans for
// the most recent entry per line.
type ImportSession struct {
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	SourcePath    string    `json:"source_path"`
	DuplicateMode string    `json:"duplicate_mode"`
	Items         []Item    `json:"items"`

	// StrategyOverrides maps a line number (as a string, matching the JSON
	// object key type) to the most recently applied policy label for that
	// line. It answers "what is the current intended policy" without
	// rewriting ledger history.
	StrategyOverrides map[string]string `json:"strategy_overrides"`
}

// Normalize replaces nil collections with empty ones so that sessions loaded
// from files with missing optional keys behave like freshly built ones.
func (s *ImportSession) Normalize() {
	if s.Items == nil {
		s.Items = []Item{}
	}
	if s.StrategyOverrides == nil {
		s.StrategyOverrides = map[string]string{}
	}
	for i := range s.Items {
		item := &s.Items[i]
		if item.Fields == nil {
			item.Fields = []string{}
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		if item.OldFields == nil {
			item.OldFields = []string{}
		}
		if item.OldTags == nil {
			item.OldTags = []string{}
		}
		if item.DuplicateNoteIDs == nil {
			item.DuplicateNoteIDs = []int64{}
		}
	}
}

// LatestBaseItem returns the most recent added/updated/skipped entry for the
// given line, or nil when the line never produced a base entry.
func (s *ImportSession) LatestBaseItem(lineNo int) *Item {
	for i := len(s.Items) - 1; i >= 0; i-- {
		item := &s.Items[i]
		if item.LineNo != lineNo {
			continue
		}
		switch item.Action {
		case ActionAdded, ActionUpdated, ActionSkipped:
			return item
		}
	}
	return nil
}

// LatestCreatedDuplicate returns the note id of the most recent entry that
// created a duplicate note for the given line, either at import time (added)
// or through a later strategy change (manual_duplicate). Returns 0 when the
// line never created a note.
func (s *ImportSession) LatestCreatedDuplicate(lineNo int) int64 {
	for i := len(s.Items) - 1; i >= 0; i-- {
		item := &s.Items[i]
		if item.LineNo == lineNo {
			switch item.Action {
			case ActionAdded, ActionManualDuplicate:
				return item.NoteID
			}
		}
	}
	return 0
}

// EffectiveMode resolves the current policy for a line: a strategy override
// wins over the base item's original action.
func (s *ImportSession) EffectiveMode(lineNo int, base *Item) DuplicateMode {
	if label, ok := s.StrategyOverrides[fmt.Sprintf("%d", lineNo)]; ok {
		if mode, err := ParseDuplicateMode(label); err == nil {
			return mode
		}
	}
	switch base.Action {
	case ActionUpdated:
		return ModeUpdate
	case ActionSkipped:
		return ModeSkip
	default:
		return ModeKeep
	}
}

// SetOverride records the new effective policy for a line.
func (s *ImportSession) SetOverride(lineNo int, mode DuplicateMode) {
	if s.StrategyOverrides == nil {
		s.StrategyOverrides = map[string]string{}
	}
	s.StrategyOverrides[fmt.Sprintf("%d", lineNo)] = mode.String()
}
