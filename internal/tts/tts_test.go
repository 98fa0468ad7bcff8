package tts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
)

func setupSpeechServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			t.Errorf("missing subscription key header")
		}
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))
	t.Cleanup(server.Close)
	return server
}

func testTTSSettings(baseURL string) config.TTSSettings {
	settings := config.DefaultSettings().TTS
	settings.BaseURL = baseURL
	settings.SubscriptionKey = "test-key"
	settings.DefaultVoice = "en-US-JennyNeural"
	settings.AudioFieldIndex = 1
	return settings
}

func setupNotes(t *testing.T, texts []string) (*collection.SQLiteStore, []int64) {
	t.Helper()
	t.Setenv("DECKFILE_DIR", t.TempDir())

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := database.CloseDatabase(dbCtx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	store := collection.NewSQLiteStore(dbCtx)
	ctx := context.Background()
	nt, err := store.EnsureNoteType(ctx, "问答题", []string{"Front", "Back"})
	if err != nil {
		t.Fatalf("EnsureNoteType returned error: %v", err)
	}

	ids := make([]int64, 0, len(texts))
	for _, text := range texts {
		id, err := store.CreateNote(ctx, nt.ID, []string{text, "answer"}, nil)
		if err != nil {
			t.Fatalf("CreateNote returned error: %v", err)
		}
		ids = append(ids, id)
	}
	return store, ids
}

func TestMediaFileNameIsDeterministic(t *testing.T) {
	a := MediaFileName("voice", "hello")
	b := MediaFileName("voice", "hello")
	c := MediaFileName("other", "hello")

	if a != b {
		t.Fatalf("expected stable names, got %q and %q", a, b)
	}
	if a == c {
		t.Fatal("expected voice to change the file name")
	}
	if !strings.HasPrefix(a, "tts_") || !strings.HasSuffix(a, ".mp3") {
		t.Fatalf("unexpected file name shape %q", a)
	}
}

func TestClientBuildsSSML(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewClient(testTTSSettings(server.URL))
	if _, err := client.Synthesize(context.Background(), `hello & "world"`, "en-US-JennyNeural"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if !strings.Contains(body, `<voice name="en-US-JennyNeural">`) {
		t.Fatalf("voice placeholder not substituted: %s", body)
	}
	if !strings.Contains(body, "hello &amp; &quot;world&quot;") {
		t.Fatalf("text not escaped: %s", body)
	}
}

func TestRunnerGeneratesAudioAndMarkers(t *testing.T) {
	var calls int32
	server := setupSpeechServer(t, &calls)
	store, ids := setupNotes(t, []string{"first text", "second text"})
	settings := testTTSSettings(server.URL)
	mediaDir := filepath.Join(t.TempDir(), "media")

	runner := NewRunner(store, NewClient(settings), settings, mediaDir)

	var progressCalls int32
	result, err := runner.Run(context.Background(), ids, "", nil, func(done, total int) {
		atomic.AddInt32(&progressCalls, 1)
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Generated != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if atomic.LoadInt32(&progressCalls) != 2 {
		t.Fatalf("expected 2 progress calls, got %d", progressCalls)
	}

	// Media files written, markers attached to the audio field.
	for _, id := range ids {
		snap, err := store.GetNoteSnapshot(context.Background(), id)
		if err != nil {
			t.Fatalf("GetNoteSnapshot returned error: %v", err)
		}
		fileName := MediaFileName("en-US-JennyNeural", snap.Fields[0])
		if !strings.Contains(snap.Fields[1], "[sound:"+fileName+"]") {
			t.Fatalf("marker missing from audio field: %q", snap.Fields[1])
		}
		if _, err := os.Stat(filepath.Join(mediaDir, fileName)); err != nil {
			t.Fatalf("media file missing: %v", err)
		}
	}

	// A second run is a no-op: markers already present.
	again, err := runner.Run(context.Background(), ids, "", nil, nil)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if again.Generated != 0 || again.Skipped != 2 {
		t.Fatalf("expected idempotent second run, got %+v", again)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 synthesis calls total, got %d", calls)
	}
}

func TestRunnerStopCheck(t *testing.T) {
	server := setupSpeechServer(t, nil)
	store, ids := setupNotes(t, []string{"a", "b", "c", "d"})
	settings := testTTSSettings(server.URL)
	settings.Concurrency = 1
	mediaDir := filepath.Join(t.TempDir(), "media")

	runner := NewRunner(store, NewClient(settings), settings, mediaDir)

	var dispatched int32
	stop := func() bool {
		return atomic.AddInt32(&dispatched, 1) > 2
	}
	result, err := runner.Run(context.Background(), ids, "", stop, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Generated+result.Skipped >= len(ids) {
		t.Fatalf("expected early stop, processed %d of %d", result.Generated+result.Skipped, len(ids))
	}
}

func TestRunnerRejectsFieldIndexOutOfRange(t *testing.T) {
	server := setupSpeechServer(t, nil)
	store, ids := setupNotes(t, []string{"some text"})
	mediaDir := filepath.Join(t.TempDir(), "media")

	// A misconfigured field index, negative or past the last field, is
	// reported per note instead of crashing the run.
	for _, idx := range []int{-1, 5} {
		settings := testTTSSettings(server.URL)
		settings.AudioFieldIndex = idx
		runner := NewRunner(store, NewClient(settings), settings, mediaDir)

		result, err := runner.Run(context.Background(), ids, "", nil, nil)
		if err != nil {
			t.Fatalf("Run with audio index %d returned error: %v", idx, err)
		}
		if result.Generated != 0 || len(result.Errors) != 1 {
			t.Fatalf("audio index %d: unexpected result %+v", idx, result)
		}
		if !strings.Contains(result.Errors[0], "out of range") {
			t.Fatalf("audio index %d: unexpected error %q", idx, result.Errors[0])
		}
	}
}

func TestRunnerSkipsMissingAndEmptyNotes(t *testing.T) {
	server := setupSpeechServer(t, nil)
	store, ids := setupNotes(t, []string{""})
	settings := testTTSSettings(server.URL)
	mediaDir := filepath.Join(t.TempDir(), "media")

	runner := NewRunner(store, NewClient(settings), settings, mediaDir)

	result, err := runner.Run(context.Background(), append(ids, 9999), "", nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Generated != 0 || result.Skipped != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
