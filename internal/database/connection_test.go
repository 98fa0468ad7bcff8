package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/deckfile/deckfile/internal/config"
)

func setupTestDB(t *testing.T) *Context {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("DECKFILE_DIR", tmp)

	ctx, err := CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestDatabaseCreationAndMigration(t *testing.T) {
	ctx := setupTestDB(t)

	dbPath := filepath.Join(config.GetDeckfileDir(), "collection.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file to exist at %s: %v", dbPath, err)
	}

	tables := []string{"decks", "note_types", "note_type_fields", "notes", "cards"}
	for _, table := range tables {
		if !tableExists(t, ctx.DB, table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestClearDatabaseRemovesAllRows(t *testing.T) {
	ctx := setupTestDB(t)

	deckID := insertDeck(t, ctx.DB, "Unit1")
	typeID := insertNoteType(t, ctx.DB, "问答题", []string{"Front", "Back"})
	noteID := insertNote(t, ctx.DB, typeID, `["q","a"]`, `[]`)
	insertCard(t, ctx.DB, noteID, deckID)

	assertCount(t, ctx.DB, "decks", 1)
	assertCount(t, ctx.DB, "note_types", 1)
	assertCount(t, ctx.DB, "note_type_fields", 2)
	assertCount(t, ctx.DB, "notes", 1)
	assertCount(t, ctx.DB, "cards", 1)

	if err := ClearDatabase(ctx); err != nil {
		t.Fatalf("ClearDatabase returned error: %v", err)
	}

	assertCount(t, ctx.DB, "decks", 0)
	assertCount(t, ctx.DB, "note_types", 0)
	assertCount(t, ctx.DB, "note_type_fields", 0)
	assertCount(t, ctx.DB, "notes", 0)
	assertCount(t, ctx.DB, "cards", 0)
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("tableExists query failed for %s: %v", table, err)
	}
	return true
}

func insertDeck(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO decks(name) VALUES(?)`, name)
	if err != nil {
		t.Fatalf("insertDeck failed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("insertDeck LastInsertId failed: %v", err)
	}
	return id
}

func insertNoteType(t *testing.T, db *sql.DB, name string, fields []string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO note_types(name) VALUES(?)`, name)
	if err != nil {
		t.Fatalf("insertNoteType failed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("insertNoteType LastInsertId failed: %v", err)
	}
	for ord, field := range fields {
		if _, err := db.Exec(`INSERT INTO note_type_fields(note_type_id, ord, name) VALUES(?, ?, ?)`, id, ord, field); err != nil {
			t.Fatalf("insert field failed: %v", err)
		}
	}
	return id
}

func insertNote(t *testing.T, db *sql.DB, typeID int64, fieldsJSON, tagsJSON string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO notes(note_type_id, sort_value, fields, tags) VALUES(?, '', ?, ?)`, typeID, fieldsJSON, tagsJSON)
	if err != nil {
		t.Fatalf("insertNote failed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("insertNote LastInsertId failed: %v", err)
	}
	return id
}

func insertCard(t *testing.T, db *sql.DB, noteID, deckID int64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO cards(note_id, deck_id) VALUES(?, ?)`, noteID, deckID); err != nil {
		t.Fatalf("insertCard failed: %v", err)
	}
}

func assertCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("count query failed for %s: %v", table, err)
	}
	if count != expected {
		t.Fatalf("expected %s to have %d rows, got %d", table, expected, count)
	}
}
