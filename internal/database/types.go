package database

import "time"

// DeckRecord represents a row in the decks table. Deck names are full
// hierarchy paths using "::" as separator.
type DeckRecord struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// NoteTypeRecord represents a note type together with its ordered field
// schema from note_type_fields.
type NoteTypeRecord struct {
	ID         int64
	Name       string
	FieldNames []string
	CreatedAt  time.Time
}

// NoteRecord represents a row in the notes table with its JSON columns
// decoded. The first field value is duplicated into SortValue for duplicate
// queries.
type NoteRecord struct {
	ID         int64
	NoteTypeID int64
	SortValue  string
	Fields     []string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
