package importer

import (
	"context"
	"fmt"

	"github.com/deckfile/deckfile/internal/logger"
	"github.com/deckfile/deckfile/internal/session"
)

// RollbackResult summarizes one RollbackSession call.
type RollbackResult struct {
	Restored int      `json:"restored"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors"`
}

// RollbackSession undoes every mutation a session recorded. The ledger is
// replayed newest-first so a later manual change on a note is undone before
// the entry that created it. Per-item failures are collected and do not stop
// the remaining steps.
func (e *Engine) RollbackSession(ctx context.Context, sess *session.ImportSession) (*RollbackResult, error) {
	result := &RollbackResult{Errors: []string{}}

	for i := len(sess.Items) - 1; i >= 0; i-- {
		item := &sess.Items[i]
		if err := e.rollbackItem(ctx, item, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): %v", item.LineNo, item.Action, err))
			logger.Warn("rollback step failed", map[string]interface{}{
				"session_id": sess.SessionID,
				"line_no":    item.LineNo,
				"action":     item.Action,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("rollback finished", map[string]interface{}{
		"session_id": sess.SessionID,
		"restored":   result.Restored,
		"deleted":    result.Deleted,
		"errors":     len(result.Errors),
	})
	return result, nil
}

func (e *Engine) rollbackItem(ctx context.Context, item *session.Item, result *RollbackResult) error {
	switch item.Action {
	case session.ActionAdded, session.ActionManualDuplicate:
		// DeleteNote is idempotent; an already-deleted note is a no-op.
		if err := e.store.DeleteNote(ctx, item.NoteID); err != nil {
			return fmt.Errorf("failed to delete note %d: %w", item.NoteID, err)
		}
		result.Deleted++

	case session.ActionUpdated, session.ActionManualUpdate:
		if err := e.store.UpdateNoteFieldsAndTags(ctx, item.NoteID, item.OldFields, item.OldTags); err != nil {
			return fmt.Errorf("failed to restore note %d: %w", item.NoteID, err)
		}
		result.Restored++

	case session.ActionSkipped:
		// Nothing was mutated for skipped rows.
	}
	return nil
}
