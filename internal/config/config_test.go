package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDeckfileDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("DECKFILE_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDeckfileDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDeckfileDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("DECKFILE_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDeckfileDir()
	want := filepath.Join(xdgDir, "deckfile")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStoragePaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DECKFILE_DIR", tmpDir)

	if got, want := GetDBPath(), filepath.Join(tmpDir, "collection.db"); got != want {
		t.Fatalf("GetDBPath expected %q, got %q", want, got)
	}
	if got, want := GetSessionsDir(), filepath.Join(tmpDir, "sessions"); got != want {
		t.Fatalf("GetSessionsDir expected %q, got %q", want, got)
	}
	if got, want := GetMediaDir(), filepath.Join(tmpDir, "media"); got != want {
		t.Fatalf("GetMediaDir expected %q, got %q", want, got)
	}
}

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DECKFILE_DIR", tmpDir)

	settings, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if settings.DeckLinePrefix != "//" {
		t.Fatalf("expected default deck prefix, got %q", settings.DeckLinePrefix)
	}
	if !settings.TypeLineAllowASCIIColon {
		t.Fatalf("expected ASCII colon to be allowed by default")
	}
	if settings.DuplicateMode != "duplicate" {
		t.Fatalf("expected default duplicate mode, got %q", settings.DuplicateMode)
	}
}

func TestLoadSettingsMergesOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.toml")
	content := `
deck_line_prefix = "##"
duplicate_mode = "skip"
type_line_allow_english_colon = false

[note_type_map]
"问答题" = "Basic"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if settings.DeckLinePrefix != "##" {
		t.Fatalf("expected overridden deck prefix, got %q", settings.DeckLinePrefix)
	}
	if settings.TypeLineAllowASCIIColon {
		t.Fatalf("expected ASCII colon override to stick")
	}
	if settings.DuplicateMode != "skip" {
		t.Fatalf("expected overridden duplicate mode, got %q", settings.DuplicateMode)
	}
	// Untouched keys keep their defaults.
	if settings.TagsSplitter != " " {
		t.Fatalf("expected default tags splitter, got %q", settings.TagsSplitter)
	}
	if settings.NoteTypeMap["问答题"] != "Basic" {
		t.Fatalf("expected note type mapping, got %#v", settings.NoteTypeMap)
	}
}

func TestLoadSettingsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.toml")
	if err := os.WriteFile(path, []byte("deck_line_prefix = [broken"), 0o600); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Fatalf("expected error for malformed settings file")
	}
}
