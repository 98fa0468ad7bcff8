// Package config resolves storage directories and loads importer settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// GetDeckfileDir resolves the base directory for all deckfile storage. It
// checks DECKFILE_DIR first, then XDG paths, and finally falls back to the
// user's home directory.
func GetDeckfileDir() string {
	if explicit := os.Getenv("DECKFILE_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "deckfile")
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "deckfile")
}

// GetDBPath returns the absolute path to the collection database file.
func GetDBPath() string {
	return filepath.Join(GetDeckfileDir(), "collection.db")
}

// GetSessionsDir returns the directory that stores import session ledgers.
func GetSessionsDir() string {
	return filepath.Join(GetDeckfileDir(), "sessions")
}

// GetMediaDir returns the directory that stores generated audio files.
func GetMediaDir() string {
	return filepath.Join(GetDeckfileDir(), "media")
}

// GetSettingsPath returns the path of the optional settings file.
func GetSettingsPath() string {
	return filepath.Join(GetDeckfileDir(), "settings.toml")
}

// Settings collects every knob the parser, importer, and TTS runner consult.
type Settings struct {
	DeckLinePrefix          string            `toml:"deck_line_prefix"`
	TypeLineAllowASCIIColon bool              `toml:"type_line_allow_english_colon"`
	DuplicateMode           string            `toml:"duplicate_mode"`
	SessionKeepLimit        int               `toml:"import_session_keep_limit"`
	TagsAddChapter          bool              `toml:"tags_add_chapter"`
	TagsAddNoteType         bool              `toml:"tags_add_note_type"`
	TypeTagPrefix           string            `toml:"type_tag_prefix"`
	DeckPrefixStripRegex    string            `toml:"deck_prefix_strip_regex"`
	TagsFromExtraColumn     bool              `toml:"tags_from_extra_column"`
	TagsSplitter            string            `toml:"tags_splitter"`
	FieldExtraJoiner        string            `toml:"field_extra_joiner"`
	ImportScopeDeckOnly     bool              `toml:"import_scope_deck_only"`
	NoteTypeMap             map[string]string `toml:"note_type_map"`
	TTS                     TTSSettings       `toml:"tts"`
}

// TTSSettings configures the speech synthesis runner.
type TTSSettings struct {
	BaseURL           string `toml:"base_url"`
	SubscriptionKey   string `toml:"subscription_key"`
	SynthesizePath    string `toml:"synthesize_path"`
	SSMLTemplate      string `toml:"ssml_template"`
	Lang              string `toml:"lang"`
	Rate              string `toml:"rate"`
	DefaultVoice      string `toml:"default_voice"`
	OutputFormat      string `toml:"output_format"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	Concurrency       int    `toml:"concurrency"`
	TextFieldIndex    int    `toml:"text_field_index"`
	AudioFieldIndex   int    `toml:"audio_field_index"`
	AudioMarkerFormat string `toml:"audio_marker_format"`
	OverwriteExisting bool   `toml:"overwrite_existing_audio"`
}

// DefaultSettings returns the compiled-in defaults. LoadSettings decodes the
// on-disk file over a copy of these, so absent keys keep their default value.
func DefaultSettings() Settings {
	return Settings{
		DeckLinePrefix:          "//",
		TypeLineAllowASCIIColon: true,
		DuplicateMode:           "duplicate",
		SessionKeepLimit:        0,
		TagsAddChapter:          true,
		TagsAddNoteType:         true,
		TypeTagPrefix:           "题型",
		DeckPrefixStripRegex:    `^\d+[-_.]+`,
		TagsFromExtraColumn:     true,
		TagsSplitter:            " ",
		FieldExtraJoiner:        "\n",
		ImportScopeDeckOnly:     true,
		NoteTypeMap:             map[string]string{},
		TTS: TTSSettings{
			SynthesizePath:    "/cognitiveservices/v1",
			SSMLTemplate:      `<speak version="1.0" xml:lang="{lang}"><voice name="{voice_name}"><prosody rate="{rate}">{text}</prosody></voice></speak>`,
			Lang:              "en-US",
			Rate:              "1.0",
			OutputFormat:      "audio-24khz-48kbitrate-mono-mp3",
			TimeoutSeconds:    20,
			Concurrency:       2,
			TextFieldIndex:    0,
			AudioFieldIndex:   0,
			AudioMarkerFormat: " [sound:{filename}]",
		},
	}
}

// LoadSettings reads the settings file at path (GetSettingsPath when empty)
// merged over the defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		path = GetSettingsPath()
	}

	settings := DefaultSettings()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to stat settings file: %w", err)
	}

	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}
	if settings.NoteTypeMap == nil {
		settings.NoteTypeMap = map[string]string{}
	}
	return settings, nil
}
