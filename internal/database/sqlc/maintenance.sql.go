package sqldb

import "context"

const deleteAllCards = `DELETE FROM cards`

func (q *Queries) DeleteAllCards(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllCards)
	return err
}

const deleteAllNotes = `DELETE FROM notes`

func (q *Queries) DeleteAllNotes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotes)
	return err
}

const deleteAllNoteTypeFields = `DELETE FROM note_type_fields`

func (q *Queries) DeleteAllNoteTypeFields(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNoteTypeFields)
	return err
}

const deleteAllNoteTypes = `DELETE FROM note_types`

func (q *Queries) DeleteAllNoteTypes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNoteTypes)
	return err
}

const deleteAllDecks = `DELETE FROM decks`

func (q *Queries) DeleteAllDecks(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDecks)
	return err
}
