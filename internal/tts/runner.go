package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/logger"
)

// StopCheck is consulted between units of work; returning true requests a
// best-effort stop.
type StopCheck func() bool

// Progress is called after each note finishes processing.
type Progress func(done, total int)

// RunResult summarizes one Run call.
type RunResult struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// Runner generates audio for notes with a bounded worker pool.
type Runner struct {
	store    collection.Store
	client   *Client
	settings config.TTSSettings
	mediaDir string
}

// NewRunner creates a runner writing media files under mediaDir.
func NewRunner(store collection.Store, client *Client, settings config.TTSSettings, mediaDir string) *Runner {
	return &Runner{
		store:    store,
		client:   client,
		settings: settings,
		mediaDir: mediaDir,
	}
}

// Run synthesizes audio for every note id, skipping notes that already carry
// a sound marker for the same content. Audio generation never touches the
// import ledger; each note is an independent, at-most-once unit.
func (r *Runner) Run(ctx context.Context, noteIDs []int64, voice string, stop StopCheck, progress Progress) (*RunResult, error) {
	if voice == "" {
		voice = r.settings.DefaultVoice
	}
	if voice == "" {
		return nil, fmt.Errorf("tts: no voice configured")
	}
	if err := os.MkdirAll(r.mediaDir, 0o750); err != nil {
		return nil, fmt.Errorf("tts: failed to create media directory: %w", err)
	}

	workers := r.settings.Concurrency
	if workers <= 0 {
		workers = 1
	}

	result := &RunResult{Errors: []string{}}
	total := len(noteIDs)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)
	jobs := make(chan int64)

	worker := func() {
		defer wg.Done()
		for noteID := range jobs {
			generated, err := r.processNote(ctx, noteID, voice)

			mu.Lock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("note %d: %v", noteID, err))
			} else if generated {
				result.Generated++
			} else {
				result.Skipped++
			}
			done++
			current := done
			mu.Unlock()

			if progress != nil {
				progress(current, total)
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	for _, noteID := range noteIDs {
		if stop != nil && stop() {
			logger.Info("tts run stopped by caller", map[string]interface{}{"total": total})
			break
		}
		select {
		case jobs <- noteID:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// processNote reports whether new audio was generated for the note.
func (r *Runner) processNote(ctx context.Context, noteID int64, voice string) (bool, error) {
	snapshot, err := r.store.GetNoteSnapshot(ctx, noteID)
	if err != nil {
		return false, err
	}
	if !snapshot.Exists {
		return false, nil
	}

	textIdx := r.settings.TextFieldIndex
	audioIdx := r.settings.AudioFieldIndex
	if textIdx < 0 || audioIdx < 0 || textIdx >= len(snapshot.Fields) || audioIdx >= len(snapshot.Fields) {
		return false, fmt.Errorf("field index out of range for %d fields", len(snapshot.Fields))
	}

	text := strings.TrimSpace(stripSoundMarkers(snapshot.Fields[textIdx]))
	if text == "" {
		return false, nil
	}

	fileName := MediaFileName(voice, text)
	marker := strings.ReplaceAll(r.settings.AudioMarkerFormat, "{filename}", fileName)
	if strings.Contains(snapshot.Fields[audioIdx], "[sound:"+fileName+"]") {
		return false, nil
	}

	mediaPath := filepath.Join(r.mediaDir, fileName)
	generated := false
	_, statErr := os.Stat(mediaPath)
	if os.IsNotExist(statErr) || r.settings.OverwriteExisting {
		audio, err := r.client.Synthesize(ctx, text, voice)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(mediaPath, audio, 0o600); err != nil {
			return false, fmt.Errorf("failed to write media file: %w", err)
		}
		generated = true
	}

	fields := append([]string(nil), snapshot.Fields...)
	fields[audioIdx] += marker
	if err := r.store.UpdateNoteFieldsAndTags(ctx, noteID, fields, snapshot.Tags); err != nil {
		return false, fmt.Errorf("failed to attach sound marker: %w", err)
	}
	return generated, nil
}

// stripSoundMarkers removes existing [sound:...] markers so the synthesized
// text does not include them.
func stripSoundMarkers(text string) string {
	for {
		start := strings.Index(text, "[sound:")
		if start < 0 {
			return text
		}
		end := strings.Index(text[start:], "]")
		if end < 0 {
			return text
		}
		text = text[:start] + text[start+end+1:]
	}
}
