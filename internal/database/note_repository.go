package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/deckfile/deckfile/internal/database/sqlc"
)

type NoteRepository struct {
	ctx *Context
}

func NewNoteRepository(dbCtx *Context) *NoteRepository {
	return &NoteRepository{ctx: dbCtx}
}

func (r *NoteRepository) Create(ctx context.Context, noteTypeID int64, fields, tags []string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("note repository: missing database context")
	}

	fieldsJSON, err := encodeStrings(fields)
	if err != nil {
		return 0, err
	}
	tagsJSON, err := encodeStrings(tags)
	if err != nil {
		return 0, err
	}

	res, err := queries.InsertNote(ctx, sqldb.InsertNoteParams{
		NoteTypeID: noteTypeID,
		SortValue:  sortValueOf(fields),
		Fields:     fieldsJSON,
		Tags:       tagsJSON,
	})
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FindByID returns the decoded note, or nil when it does not exist.
func (r *NoteRepository) FindByID(ctx context.Context, id int64) (*NoteRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("note repository: missing database context")
	}

	row, err := queries.FindNoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	fields, err := decodeStrings(row.Fields)
	if err != nil {
		return nil, err
	}
	tags, err := decodeStrings(row.Tags)
	if err != nil {
		return nil, err
	}

	return &NoteRecord{
		ID:         row.ID,
		NoteTypeID: row.NoteTypeID,
		SortValue:  row.SortValue,
		Fields:     fields,
		Tags:       tags,
		CreatedAt:  optionalTime(row.CreatedAt),
		UpdatedAt:  optionalTime(row.UpdatedAt),
	}, nil
}

// UpdateFieldsAndTags overwrites the note content. Returns ErrNotFound when
// the note no longer exists.
func (r *NoteRepository) UpdateFieldsAndTags(ctx context.Context, id int64, fields, tags []string) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("note repository: missing database context")
	}

	fieldsJSON, err := encodeStrings(fields)
	if err != nil {
		return err
	}
	tagsJSON, err := encodeStrings(tags)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateNote(ctx, sqldb.UpdateNoteParams{
		SortValue: sortValueOf(fields),
		Fields:    fieldsJSON,
		Tags:      tagsJSON,
		ID:        id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the note. Deleting a missing note is a no-op.
func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("note repository: missing database context")
	}
	_, err := queries.DeleteNoteByID(ctx, id)
	return err
}

// AttachToDeck links the note to a deck. Attaching twice is a no-op.
func (r *NoteRepository) AttachToDeck(ctx context.Context, noteID, deckID int64) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("note repository: missing database context")
	}
	return queries.InsertCard(ctx, noteID, deckID)
}

// FindIDsBySortValue returns ids of notes of the given type whose first
// field equals sortValue, oldest first. A non-nil deckID restricts the
// search to notes attached to that deck.
func (r *NoteRepository) FindIDsBySortValue(ctx context.Context, noteTypeID int64, sortValue string, deckID *int64) ([]int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("note repository: missing database context")
	}

	if deckID != nil {
		return queries.FindNoteIDsBySortValueInDeck(ctx, sqldb.FindNoteIDsBySortValueInDeckParams{
			NoteTypeID: noteTypeID,
			SortValue:  sortValue,
			DeckID:     *deckID,
		})
	}
	return queries.FindNoteIDsBySortValue(ctx, sqldb.FindNoteIDsBySortValueParams{
		NoteTypeID: noteTypeID,
		SortValue:  sortValue,
	})
}

// CountAll returns the total number of notes in the collection.
func (r *NoteRepository) CountAll(ctx context.Context) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("note repository: missing database context")
	}
	return queries.CountNotes(ctx)
}
