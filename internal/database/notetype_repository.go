package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/deckfile/deckfile/internal/database/sqlc"
)

type NoteTypeRepository struct {
	ctx *Context
}

func NewNoteTypeRepository(dbCtx *Context) *NoteTypeRepository {
	return &NoteTypeRepository{ctx: dbCtx}
}

// FindByName returns the note type and its ordered field names, or
// ErrNotFound when no such type exists.
func (r *NoteTypeRepository) FindByName(ctx context.Context, name string) (*NoteTypeRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("note type repository: missing database context")
	}

	row, err := queries.FindNoteTypeByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fields, err := queries.ListNoteTypeFields(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	return &NoteTypeRecord{
		ID:         row.ID,
		Name:       row.Name,
		FieldNames: fields,
		CreatedAt:  optionalTime(row.CreatedAt),
	}, nil
}

// Ensure creates the note type with the given field schema if it does not
// exist yet and returns the stored record. An existing type is returned
// unchanged; its schema is not rewritten.
func (r *NoteTypeRepository) Ensure(ctx context.Context, name string, fieldNames []string) (*NoteTypeRecord, error) {
	existing, err := r.FindByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(fieldNames) == 0 {
		return nil, fmt.Errorf("note type repository: %q needs at least one field", name)
	}

	queries := queriesFromContext(r.ctx)
	res, err := queries.InsertNoteType(ctx, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for ord, fieldName := range fieldNames {
		if err := queries.InsertNoteTypeField(ctx, sqldb.InsertNoteTypeFieldParams{
			NoteTypeID: id,
			Ord:        int64(ord),
			Name:       fieldName,
		}); err != nil {
			return nil, err
		}
	}

	return &NoteTypeRecord{ID: id, Name: name, FieldNames: append([]string{}, fieldNames...)}, nil
}
