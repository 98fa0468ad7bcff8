// Package collection exposes the card collection as a narrow capability
// interface consumed by the import engine.
package collection

import (
	"context"

	"github.com/deckfile/deckfile/internal/database"
)

// ErrNoteTypeNotFound is returned by GetNoteType when no note type with the
// requested name exists in the collection.
var ErrNoteTypeNotFound = database.ErrNotFound

// NoteType describes a stored note type and its ordered field schema.
type NoteType struct {
	ID         int64
	Name       string
	FieldNames []string
}

// NoteSnapshot captures a note's content at a point in time. Exists is false
// when the note id no longer resolves to a stored note.
type NoteSnapshot struct {
	Exists bool
	Fields []string
	Tags   []string
}

// NoteQuery selects notes by note type and exact first-field value, optionally
// restricted to a single deck.
type NoteQuery struct {
	NoteTypeID int64
	DeckName   string // empty = collection-wide
	FirstField string
}

// Store is the record-store capability the import engine depends on.
type Store interface {
	GetOrCreateDeck(ctx context.Context, name string) (int64, error)

	// GetNoteType resolves a note type name to its id and ordered field
	// names. Returns ErrNoteTypeNotFound when absent.
	GetNoteType(ctx context.Context, name string) (*NoteType, error)

	CreateNote(ctx context.Context, noteTypeID int64, fields, tags []string) (int64, error)
	AddNoteToDeck(ctx context.Context, noteID, deckID int64) error
	UpdateNoteFieldsAndTags(ctx context.Context, noteID int64, fields, tags []string) error

	// GetNoteSnapshot never fails on a missing note; it reports Exists=false.
	GetNoteSnapshot(ctx context.Context, noteID int64) (NoteSnapshot, error)

	// DeleteNote is idempotent; deleting an absent note is a no-op.
	DeleteNote(ctx context.Context, noteID int64) error

	FindNotes(ctx context.Context, query NoteQuery) ([]int64, error)
	CountNotes(ctx context.Context) (int64, error)
}
