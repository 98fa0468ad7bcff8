package importer

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/deckfile/deckfile/internal/logger"
	"github.com/deckfile/deckfile/internal/session"
)

// StrategyResult summarizes one ApplyDuplicateStrategy call.
type StrategyResult struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// ApplyDuplicateStrategy re-resolves how individual lines of a past import
// handled their duplicates. Each requested line transitions from its current
// effective policy to target; a failed line does not stop the rest.
func (e *Engine) ApplyDuplicateStrategy(ctx context.Context, sessionID string, lineNumbers []int, target session.DuplicateMode) (*StrategyResult, error) {
	result := &StrategyResult{Errors: []string{}}

	// The whole load-apply-write cycle runs under the session's lock so that
	// concurrent strategy calls cannot overwrite each other's ledger entries.
	_, err := e.sessions.Mutate(sessionID, func(sess *session.ImportSession) error {
		for _, lineNo := range lineNumbers {
			applied, err := e.applyLineStrategy(ctx, sess, lineNo, target)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
				logger.Warn("strategy change failed", map[string]interface{}{
					"session_id": sessionID,
					"line_no":    lineNo,
					"error":      err.Error(),
				})
				continue
			}
			if applied {
				result.Applied++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist session %s: %w", sessionID, err)
	}
	return result, nil
}

func (e *Engine) applyLineStrategy(ctx context.Context, sess *session.ImportSession, lineNo int, target session.DuplicateMode) (bool, error) {
	base := sess.LatestBaseItem(lineNo)
	if base == nil {
		return false, fmt.Errorf("no import entry recorded for this line")
	}
	if len(base.DuplicateNoteIDs) == 0 {
		return false, fmt.Errorf("no duplicates recorded; the policy cannot be changed")
	}
	primary := base.DuplicateNoteIDs[0]

	if sess.EffectiveMode(lineNo, base) == target {
		return false, nil
	}

	switch target {
	case session.ModeUpdate:
		if err := e.deleteCreatedDuplicate(ctx, sess, lineNo, primary); err != nil {
			return false, err
		}
		snapshot, err := e.store.GetNoteSnapshot(ctx, primary)
		if err != nil {
			return false, fmt.Errorf("failed to snapshot note %d: %w", primary, err)
		}
		if err := e.store.UpdateNoteFieldsAndTags(ctx, primary, base.Fields, base.Tags); err != nil {
			return false, fmt.Errorf("failed to update note %d: %w", primary, err)
		}
		sess.Items = append(sess.Items, session.Item{
			LineNo:           lineNo,
			Action:           session.ActionManualUpdate,
			NoteID:           primary,
			DeckName:         base.DeckName,
			NoteType:         base.NoteType,
			Fields:           base.Fields,
			Tags:             base.Tags,
			OldFields:        snapshot.Fields,
			OldTags:          snapshot.Tags,
			DuplicateNoteIDs: base.DuplicateNoteIDs,
		})

	case session.ModeKeep:
		if err := e.restorePrimaryIfChanged(ctx, sess, base, primary); err != nil {
			return false, err
		}
		noteID, err := e.createDuplicateNote(ctx, base)
		if err != nil {
			return false, err
		}
		sess.Items = append(sess.Items, session.Item{
			LineNo:           lineNo,
			Action:           session.ActionManualDuplicate,
			NoteID:           noteID,
			DeckName:         base.DeckName,
			NoteType:         base.NoteType,
			Fields:           base.Fields,
			Tags:             base.Tags,
			OldFields:        []string{},
			OldTags:          []string{},
			DuplicateNoteIDs: base.DuplicateNoteIDs,
		})

	case session.ModeSkip:
		if err := e.deleteCreatedDuplicate(ctx, sess, lineNo, primary); err != nil {
			return false, err
		}
		if err := e.restorePrimaryIfChanged(ctx, sess, base, primary); err != nil {
			return false, err
		}
	}

	sess.SetOverride(lineNo, target)
	return true, nil
}

// deleteCreatedDuplicate removes the note most recently created for this
// line, either at import time or by an earlier strategy change. The primary
// duplicate is never deleted.
func (e *Engine) deleteCreatedDuplicate(ctx context.Context, sess *session.ImportSession, lineNo int, primary int64) error {
	noteID := sess.LatestCreatedDuplicate(lineNo)
	if noteID == 0 || noteID == primary {
		return nil
	}
	if err := e.store.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("failed to delete duplicate note %d: %w", noteID, err)
	}
	return nil
}

// restorePrimaryIfChanged puts the primary duplicate back to its pre-import
// snapshot when its current content diverges from it, recording the
// restoration as a manual_update entry.
func (e *Engine) restorePrimaryIfChanged(ctx context.Context, sess *session.ImportSession, base *session.Item, primary int64) error {
	snapshot, err := e.store.GetNoteSnapshot(ctx, primary)
	if err != nil {
		return fmt.Errorf("failed to snapshot note %d: %w", primary, err)
	}
	if !snapshot.Exists {
		return fmt.Errorf("primary duplicate note %d no longer exists", primary)
	}
	if reflect.DeepEqual(snapshot.Fields, base.OldFields) && reflect.DeepEqual(snapshot.Tags, base.OldTags) {
		return nil
	}
	if err := e.store.UpdateNoteFieldsAndTags(ctx, primary, base.OldFields, base.OldTags); err != nil {
		return fmt.Errorf("failed to restore note %d: %w", primary, err)
	}
	sess.Items = append(sess.Items, session.Item{
		LineNo:           base.LineNo,
		Action:           session.ActionManualUpdate,
		NoteID:           primary,
		DeckName:         base.DeckName,
		NoteType:         base.NoteType,
		Fields:           base.OldFields,
		Tags:             base.OldTags,
		OldFields:        snapshot.Fields,
		OldTags:          snapshot.Tags,
		DuplicateNoteIDs: base.DuplicateNoteIDs,
	})
	return nil
}

// createDuplicateNote creates a fresh note carrying the line's content and
// attaches it to the line's deck.
func (e *Engine) createDuplicateNote(ctx context.Context, base *session.Item) (int64, error) {
	noteType, err := e.store.GetNoteType(ctx, base.NoteType)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve note type %q: %w", base.NoteType, err)
	}
	deckID, err := e.store.GetOrCreateDeck(ctx, base.DeckName)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve deck %q: %w", base.DeckName, err)
	}
	noteID, err := e.store.CreateNote(ctx, noteType.ID, base.Fields, base.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to create note: %w", err)
	}
	if err := e.store.AddNoteToDeck(ctx, noteID, deckID); err != nil {
		return 0, fmt.Errorf("failed to attach note %d to deck: %w", noteID, err)
	}
	return noteID, nil
}
