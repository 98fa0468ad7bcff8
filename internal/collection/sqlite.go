package collection

import (
	"context"
	"fmt"

	"github.com/deckfile/deckfile/internal/database"
)

// SQLiteStore implements Store on top of the SQLite collection database.
type SQLiteStore struct {
	decks     *database.DeckRepository
	noteTypes *database.NoteTypeRepository
	notes     *database.NoteRepository
}

// NewSQLiteStore creates a store backed by the given database context.
func NewSQLiteStore(dbCtx *database.Context) *SQLiteStore {
	return &SQLiteStore{
		decks:     database.NewDeckRepository(dbCtx),
		noteTypes: database.NewNoteTypeRepository(dbCtx),
		notes:     database.NewNoteRepository(dbCtx),
	}
}

func (s *SQLiteStore) GetOrCreateDeck(ctx context.Context, name string) (int64, error) {
	return s.decks.GetOrCreate(ctx, name)
}

func (s *SQLiteStore) GetNoteType(ctx context.Context, name string) (*NoteType, error) {
	record, err := s.noteTypes.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &NoteType{
		ID:         record.ID,
		Name:       record.Name,
		FieldNames: record.FieldNames,
	}, nil
}

// EnsureNoteType creates the note type with the given field schema if it does
// not exist yet, and returns the stored definition either way.
func (s *SQLiteStore) EnsureNoteType(ctx context.Context, name string, fieldNames []string) (*NoteType, error) {
	record, err := s.noteTypes.Ensure(ctx, name, fieldNames)
	if err != nil {
		return nil, err
	}
	return &NoteType{
		ID:         record.ID,
		Name:       record.Name,
		FieldNames: record.FieldNames,
	}, nil
}

func (s *SQLiteStore) CreateNote(ctx context.Context, noteTypeID int64, fields, tags []string) (int64, error) {
	return s.notes.Create(ctx, noteTypeID, fields, tags)
}

func (s *SQLiteStore) AddNoteToDeck(ctx context.Context, noteID, deckID int64) error {
	return s.notes.AttachToDeck(ctx, noteID, deckID)
}

func (s *SQLiteStore) UpdateNoteFieldsAndTags(ctx context.Context, noteID int64, fields, tags []string) error {
	return s.notes.UpdateFieldsAndTags(ctx, noteID, fields, tags)
}

func (s *SQLiteStore) GetNoteSnapshot(ctx context.Context, noteID int64) (NoteSnapshot, error) {
	record, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		return NoteSnapshot{}, err
	}
	if record == nil {
		return NoteSnapshot{}, nil
	}
	return NoteSnapshot{
		Exists: true,
		Fields: record.Fields,
		Tags:   record.Tags,
	}, nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, noteID int64) error {
	return s.notes.Delete(ctx, noteID)
}

func (s *SQLiteStore) FindNotes(ctx context.Context, query NoteQuery) ([]int64, error) {
	var deckID *int64
	if query.DeckName != "" {
		deck, err := s.decks.FindByName(ctx, query.DeckName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve deck %q: %w", query.DeckName, err)
		}
		if deck == nil {
			return nil, nil
		}
		deckID = &deck.ID
	}
	return s.notes.FindIDsBySortValue(ctx, query.NoteTypeID, query.FirstField, deckID)
}

func (s *SQLiteStore) CountNotes(ctx context.Context) (int64, error) {
	return s.notes.CountAll(ctx)
}
