package sqldb

import "database/sql"

// Deck mirrors a row in the decks table.
type Deck struct {
	ID        int64
	Name      string
	CreatedAt sql.NullTime
}

// NoteType mirrors a row in the note_types table.
type NoteType struct {
	ID        int64
	Name      string
	CreatedAt sql.NullTime
}

// NoteTypeField mirrors a row in the note_type_fields table.
type NoteTypeField struct {
	NoteTypeID int64
	Ord        int64
	Name       string
}

// Note mirrors a row in the notes table. Fields and Tags hold JSON arrays.
type Note struct {
	ID         int64
	NoteTypeID int64
	SortValue  string
	Fields     string
	Tags       string
	CreatedAt  sql.NullTime
	UpdatedAt  sql.NullTime
}

// Card mirrors a row in the cards table.
type Card struct {
	NoteID int64
	DeckID int64
}
