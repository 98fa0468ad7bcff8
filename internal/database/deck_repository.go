package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type DeckRepository struct {
	ctx *Context
}

func NewDeckRepository(dbCtx *Context) *DeckRepository {
	return &DeckRepository{ctx: dbCtx}
}

// GetOrCreate returns the deck id for name, creating the deck if necessary.
func (r *DeckRepository) GetOrCreate(ctx context.Context, name string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("deck repository: missing database context")
	}
	if name == "" {
		return 0, fmt.Errorf("deck repository: deck name is empty")
	}

	row, err := queries.FindDeckByName(ctx, name)
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := queries.InsertDeck(ctx, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DeckRepository) FindByName(ctx context.Context, name string) (*DeckRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("deck repository: missing database context")
	}

	row, err := queries.FindDeckByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &DeckRecord{ID: row.ID, Name: row.Name, CreatedAt: optionalTime(row.CreatedAt)}, nil
}

func (r *DeckRepository) ListAll(ctx context.Context) ([]DeckRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("deck repository: missing database context")
	}

	rows, err := queries.ListDecks(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]DeckRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, DeckRecord{ID: row.ID, Name: row.Name, CreatedAt: optionalTime(row.CreatedAt)})
	}
	return result, nil
}
