// Package importer maps parsed sections onto the card collection under a
// duplicate-resolution policy and records every mutation in a session ledger.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/logger"
	"github.com/deckfile/deckfile/internal/parser"
	"github.com/deckfile/deckfile/internal/session"
	"github.com/deckfile/deckfile/internal/tags"
)

// Result summarizes one import call.
type Result struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`

	ImportedNoteIDs  []int64 `json:"imported_note_ids"`
	AddedNoteIDs     []int64 `json:"added_note_ids"`
	UpdatedNoteIDs   []int64 `json:"updated_note_ids"`
	SkippedNoteIDs   []int64 `json:"skipped_note_ids"`
	DuplicateNoteIDs []int64 `json:"duplicate_note_ids"`

	SessionID string `json:"session_id"`
}

// Engine performs imports, strategy changes, and rollbacks against an
// injected collection store and session ledger.
type Engine struct {
	store    collection.Store
	sessions *session.FileStore
	settings config.Settings
}

// NewEngine creates an engine with the given collaborators.
func NewEngine(store collection.Store, sessions *session.FileStore, settings config.Settings) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		settings: settings,
	}
}

// Import writes every parsed section into the collection, resolving
// duplicates per the configured policy, and persists the session ledger.
// Row-level failures are collected into the result; only setup failures
// (unknown note type, unreachable ledger) abort the whole call.
func (e *Engine) Import(ctx context.Context, parsed *parser.Result, sourcePath string) (*Result, error) {
	mode, err := session.ParseDuplicateMode(e.settings.DuplicateMode)
	if err != nil {
		return nil, fmt.Errorf("invalid duplicate_mode setting: %w", err)
	}

	now := time.Now()
	sess := &session.ImportSession{
		SessionID:     e.sessions.NewSessionID(now),
		CreatedAt:     now,
		SourcePath:    sourcePath,
		DuplicateMode: mode.String(),
	}
	sess.Normalize()

	result := &Result{
		Errors:           []string{},
		ImportedNoteIDs:  []int64{},
		AddedNoteIDs:     []int64{},
		UpdatedNoteIDs:   []int64{},
		SkippedNoteIDs:   []int64{},
		DuplicateNoteIDs: []int64{},
	}

	logger.Info("starting import", map[string]interface{}{
		"source":         sourcePath,
		"sections":       len(parsed.Sections),
		"rows":           parsed.RowCount(),
		"duplicate_mode": mode.String(),
	})

	for _, section := range parsed.Sections {
		if len(section.Rows) == 0 {
			continue
		}
		if err := e.importSection(ctx, section, mode, sess, result); err != nil {
			return nil, err
		}
	}

	if err := e.sessions.Save(sess, e.settings.SessionKeepLimit); err != nil {
		return nil, fmt.Errorf("failed to persist import session: %w", err)
	}
	result.SessionID = sess.SessionID

	logger.Info("import finished", map[string]interface{}{
		"session_id": sess.SessionID,
		"added":      result.Added,
		"updated":    result.Updated,
		"skipped":    result.Skipped,
		"errors":     len(result.Errors),
	})
	return result, nil
}

func (e *Engine) importSection(ctx context.Context, section *parser.Section, mode session.DuplicateMode, sess *session.ImportSession, result *Result) error {
	typeName := e.resolveNoteTypeName(section.NoteType)
	noteType, err := e.store.GetNoteType(ctx, typeName)
	if err != nil {
		return fmt.Errorf("failed to resolve note type %q: %w", typeName, err)
	}

	deckID, err := e.store.GetOrCreateDeck(ctx, section.DeckName)
	if err != nil {
		return fmt.Errorf("failed to resolve deck %q: %w", section.DeckName, err)
	}

	deckTag := tags.NormalizeDeckTag(section.DeckName, e.settings.DeckPrefixStripRegex)

	for _, row := range section.Rows {
		if err := e.importRow(ctx, section, row, noteType, deckID, deckTag, mode, sess, result); err != nil {
			msg := fmt.Sprintf("line %d: %v", row.LineNo, err)
			result.Errors = append(result.Errors, msg)
			logger.Warn("row import failed", map[string]interface{}{
				"line_no": row.LineNo,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

// resolveNoteTypeName maps the document's logical type name to the stored
// note type name via the note_type_map setting.
func (e *Engine) resolveNoteTypeName(name string) string {
	if mapped, ok := e.settings.NoteTypeMap[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

func (e *Engine) importRow(ctx context.Context, section *parser.Section, row parser.Row, noteType *collection.NoteType, deckID int64, deckTag string, mode session.DuplicateMode, sess *session.ImportSession, result *Result) error {
	fields, rawTags := e.reconcileFields(row.Fields, len(noteType.FieldNames))

	merged := tags.Merge(rawTags, tags.MergeOptions{
		DeckTag:       deckTag,
		NoteType:      section.NoteType,
		TypeTagPrefix: e.settings.TypeTagPrefix + tags.Separator,
		AddChapterTag: e.settings.TagsAddChapter,
		AddTypeTag:    e.settings.TagsAddNoteType,
	})

	duplicates, err := e.findDuplicates(ctx, noteType, section.DeckName, fields)
	if err != nil {
		return err
	}

	item := session.Item{
		LineNo:           row.LineNo,
		NoteID:           0,
		DeckName:         section.DeckName,
		NoteType:         noteType.Name,
		Fields:           fields,
		Tags:             merged,
		OldFields:        []string{},
		OldTags:          []string{},
		DuplicateNoteIDs: duplicates,
	}
	result.DuplicateNoteIDs = append(result.DuplicateNoteIDs, duplicates...)

	switch {
	case mode == session.ModeSkip && len(duplicates) > 0:
		snapshot, err := e.store.GetNoteSnapshot(ctx, duplicates[0])
		if err != nil {
			return fmt.Errorf("failed to snapshot duplicate note %d: %w", duplicates[0], err)
		}
		item.Action = session.ActionSkipped
		item.NoteID = duplicates[0]
		item.OldFields = snapshot.Fields
		item.OldTags = snapshot.Tags
		result.Skipped++
		result.SkippedNoteIDs = append(result.SkippedNoteIDs, duplicates[0])

	case mode == session.ModeUpdate && len(duplicates) > 0:
		snapshot, err := e.store.GetNoteSnapshot(ctx, duplicates[0])
		if err != nil {
			return fmt.Errorf("failed to snapshot duplicate note %d: %w", duplicates[0], err)
		}
		if err := e.store.UpdateNoteFieldsAndTags(ctx, duplicates[0], fields, merged); err != nil {
			return fmt.Errorf("failed to update note %d: %w", duplicates[0], err)
		}
		item.Action = session.ActionUpdated
		item.NoteID = duplicates[0]
		item.OldFields = snapshot.Fields
		item.OldTags = snapshot.Tags
		result.Updated++
		result.UpdatedNoteIDs = append(result.UpdatedNoteIDs, duplicates[0])
		result.ImportedNoteIDs = append(result.ImportedNoteIDs, duplicates[0])

	default:
		// Keep policy, or no duplicate under any policy: create a new note.
		if len(duplicates) > 0 {
			// Snapshot the primary duplicate so a later strategy change can
			// still restore it, even though nothing is modified now.
			snapshot, err := e.store.GetNoteSnapshot(ctx, duplicates[0])
			if err != nil {
				return fmt.Errorf("failed to snapshot duplicate note %d: %w", duplicates[0], err)
			}
			item.OldFields = snapshot.Fields
			item.OldTags = snapshot.Tags
		}
		noteID, err := e.store.CreateNote(ctx, noteType.ID, fields, merged)
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		if err := e.store.AddNoteToDeck(ctx, noteID, deckID); err != nil {
			return fmt.Errorf("failed to attach note %d to deck: %w", noteID, err)
		}
		item.Action = session.ActionAdded
		item.NoteID = noteID
		result.Added++
		result.AddedNoteIDs = append(result.AddedNoteIDs, noteID)
		result.ImportedNoteIDs = append(result.ImportedNoteIDs, noteID)
	}

	sess.Items = append(sess.Items, item)
	return nil
}

// reconcileFields fits a row's values into the schema's field count. An extra
// trailing column becomes the raw tag list when enabled; short rows are
// padded; overflow values are joined into the last slot so no data is lost.
func (e *Engine) reconcileFields(rowFields []string, schemaSize int) (fields []string, rawTags []string) {
	fields = append([]string(nil), rowFields...)

	if e.settings.TagsFromExtraColumn && len(fields) == schemaSize+1 {
		rawTags = tags.Split(fields[len(fields)-1], e.settings.TagsSplitter)
		fields = fields[:len(fields)-1]
	}

	for len(fields) < schemaSize {
		fields = append(fields, "")
	}
	if len(fields) > schemaSize {
		fields[schemaSize-1] = strings.Join(fields[schemaSize-1:], e.settings.FieldExtraJoiner)
		fields = fields[:schemaSize]
	}
	return fields, rawTags
}

// findDuplicates looks up existing notes sharing the row's first field value.
// An empty first field is never deduplicated.
func (e *Engine) findDuplicates(ctx context.Context, noteType *collection.NoteType, deckName string, fields []string) ([]int64, error) {
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return []int64{}, nil
	}

	query := collection.NoteQuery{
		NoteTypeID: noteType.ID,
		FirstField: fields[0],
	}
	if e.settings.ImportScopeDeckOnly {
		query.DeckName = deckName
	}

	ids, err := e.store.FindNotes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
