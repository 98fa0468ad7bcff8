package sqldb

import (
	"context"
	"database/sql"
)

const insertDeck = `INSERT INTO decks (name) VALUES (?)`

func (q *Queries) InsertDeck(ctx context.Context, name string) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertDeck, name)
}

const findDeckByName = `SELECT id, name, created_at FROM decks WHERE name = ?`

func (q *Queries) FindDeckByName(ctx context.Context, name string) (Deck, error) {
	row := q.db.QueryRowContext(ctx, findDeckByName, name)
	var d Deck
	err := row.Scan(&d.ID, &d.Name, &d.CreatedAt)
	return d, err
}

const listDecks = `SELECT id, name, created_at FROM decks ORDER BY name`

func (q *Queries) ListDecks(ctx context.Context) ([]Deck, error) {
	rows, err := q.db.QueryContext(ctx, listDecks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const insertNoteType = `INSERT INTO note_types (name) VALUES (?)`

func (q *Queries) InsertNoteType(ctx context.Context, name string) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertNoteType, name)
}

const findNoteTypeByName = `SELECT id, name, created_at FROM note_types WHERE name = ?`

func (q *Queries) FindNoteTypeByName(ctx context.Context, name string) (NoteType, error) {
	row := q.db.QueryRowContext(ctx, findNoteTypeByName, name)
	var nt NoteType
	err := row.Scan(&nt.ID, &nt.Name, &nt.CreatedAt)
	return nt, err
}

type InsertNoteTypeFieldParams struct {
	NoteTypeID int64
	Ord        int64
	Name       string
}

const insertNoteTypeField = `INSERT INTO note_type_fields (note_type_id, ord, name) VALUES (?, ?, ?)`

func (q *Queries) InsertNoteTypeField(ctx context.Context, arg InsertNoteTypeFieldParams) error {
	_, err := q.db.ExecContext(ctx, insertNoteTypeField, arg.NoteTypeID, arg.Ord, arg.Name)
	return err
}

const listNoteTypeFields = `SELECT name FROM note_type_fields WHERE note_type_id = ? ORDER BY ord`

func (q *Queries) ListNoteTypeFields(ctx context.Context, noteTypeID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listNoteTypeFields, noteTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type InsertNoteParams struct {
	NoteTypeID int64
	SortValue  string
	Fields     string
	Tags       string
}

const insertNote = `INSERT INTO notes (note_type_id, sort_value, fields, tags) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertNote(ctx context.Context, arg InsertNoteParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertNote, arg.NoteTypeID, arg.SortValue, arg.Fields, arg.Tags)
}

const findNoteByID = `SELECT id, note_type_id, sort_value, fields, tags, created_at, updated_at FROM notes WHERE id = ?`

func (q *Queries) FindNoteByID(ctx context.Context, id int64) (Note, error) {
	row := q.db.QueryRowContext(ctx, findNoteByID, id)
	var n Note
	err := row.Scan(&n.ID, &n.NoteTypeID, &n.SortValue, &n.Fields, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

type UpdateNoteParams struct {
	SortValue string
	Fields    string
	Tags      string
	ID        int64
}

const updateNote = `UPDATE notes SET sort_value = ?, fields = ?, tags = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

func (q *Queries) UpdateNote(ctx context.Context, arg UpdateNoteParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateNote, arg.SortValue, arg.Fields, arg.Tags, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteNoteByID = `DELETE FROM notes WHERE id = ?`

func (q *Queries) DeleteNoteByID(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteNoteByID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countNotes = `SELECT COUNT(*) FROM notes`

func (q *Queries) CountNotes(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countNotes)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertCard = `INSERT OR IGNORE INTO cards (note_id, deck_id) VALUES (?, ?)`

func (q *Queries) InsertCard(ctx context.Context, noteID, deckID int64) error {
	_, err := q.db.ExecContext(ctx, insertCard, noteID, deckID)
	return err
}

type FindNoteIDsBySortValueParams struct {
	NoteTypeID int64
	SortValue  string
}

const findNoteIDsBySortValue = `SELECT id FROM notes WHERE note_type_id = ? AND sort_value = ? ORDER BY id`

func (q *Queries) FindNoteIDsBySortValue(ctx context.Context, arg FindNoteIDsBySortValueParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, findNoteIDsBySortValue, arg.NoteTypeID, arg.SortValue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

type FindNoteIDsBySortValueInDeckParams struct {
	NoteTypeID int64
	SortValue  string
	DeckID     int64
}

const findNoteIDsBySortValueInDeck = `
SELECT n.id FROM notes n
JOIN cards c ON c.note_id = n.id
WHERE n.note_type_id = ? AND n.sort_value = ? AND c.deck_id = ?
ORDER BY n.id`

func (q *Queries) FindNoteIDsBySortValueInDeck(ctx context.Context, arg FindNoteIDsBySortValueInDeckParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, findNoteIDsBySortValueInDeck, arg.NoteTypeID, arg.SortValue, arg.DeckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
