package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deckfile/deckfile/internal/logger"
)

const (
	filePrefix      = "import_session_"
	fileSuffix      = ".json"
	latestPointer   = "latest.json"
	sessionIDLayout = "20060102_150405"
)

// ErrSessionNotFound is returned when no session file exists for an id.
var ErrSessionNotFound = errors.New("session: not found")

type latestRecord struct {
	SessionID string `json:"session_id"`
}

// FileStore keeps one JSON file per import session plus a pointer file naming
// the latest session. Writers for the same session are serialized by an
// in-process per-session mutex; cross-process writers are not coordinated.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *FileStore) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, filePrefix+sessionID+fileSuffix)
}

// NewSessionID derives a sortable session id from the current time. Ids that
// collide within the same second get a numeric suffix.
func (s *FileStore) NewSessionID(now time.Time) string {
	base := now.Format(sessionIDLayout)
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(s.sessionPath(id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

// Save persists the session, updates the latest pointer, and prunes the
// oldest session files beyond keepLimit (0 = unlimited).
func (s *FileStore) Save(sess *ImportSession, keepLimit int) error {
	lock := s.sessionLock(sess.SessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.writeSessionFile(sess); err != nil {
		return err
	}
	if err := s.writeLatest(sess.SessionID); err != nil {
		return err
	}
	return s.prune(keepLimit)
}

// Mutate runs a full read-modify-write cycle on one session: load, apply fn,
// rewrite the file. The session's lock is held for the whole cycle, so
// concurrent mutations of the same session cannot overwrite each other's
// appended entries. The latest pointer and prune policy are not touched.
// When fn returns an error the file is left unchanged.
func (s *FileStore) Mutate(sessionID string, fn func(*ImportSession) error) (*ImportSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.Normalize()
	if err := s.writeSessionFile(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads one session by id. Missing optional keys decode to empty
// collections.
func (s *FileStore) Load(sessionID string) (*ImportSession, error) {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	var sess ImportSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	if sess.SessionID == "" {
		sess.SessionID = sessionID
	}
	sess.Normalize()
	return &sess, nil
}

// LoadLatest resolves the latest pointer. It returns (nil, nil) when no
// pointer exists or the pointed-at session file is gone.
func (s *FileStore) LoadLatest() (*ImportSession, error) {
	id, err := s.readLatest()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	sess, err := s.Load(id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	return sess, err
}

// ListAll returns every stored session sorted by creation time, newest first.
func (s *FileStore) ListAll() ([]*ImportSession, error) {
	ids, err := s.listIDs()
	if err != nil {
		return nil, err
	}

	sessions := make([]*ImportSession, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(id)
		if err != nil {
			logger.Warn("skipping unreadable session file", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].SessionID > sessions[j].SessionID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Delete removes a session file. If the latest pointer referenced it, the
// pointer is moved to the newest remaining session or removed entirely.
func (s *FileStore) Delete(sessionID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.sessionPath(sessionID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	latest, err := s.readLatest()
	if err != nil {
		return err
	}
	if latest != sessionID {
		return nil
	}

	ids, err := s.listIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		if err := os.Remove(filepath.Join(s.dir, latestPointer)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove latest pointer: %w", err)
		}
		return nil
	}
	sort.Strings(ids)
	return s.writeLatest(ids[len(ids)-1])
}

// AppendItems appends ledger entries to an existing session and rewrites it.
func (s *FileStore) AppendItems(sessionID string, items []Item) (*ImportSession, error) {
	return s.Mutate(sessionID, func(sess *ImportSession) error {
		sess.Items = append(sess.Items, items...)
		return nil
	})
}

func (s *FileStore) writeSessionFile(sess *ImportSession) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.SessionID, err)
	}
	if err := os.WriteFile(s.sessionPath(sess.SessionID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	return nil
}

func (s *FileStore) writeLatest(sessionID string) error {
	data, err := json.Marshal(latestRecord{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to encode latest pointer: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, latestPointer), data, 0o600); err != nil {
		return fmt.Errorf("failed to write latest pointer: %w", err)
	}
	return nil
}

func (s *FileStore) readLatest() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, latestPointer))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read latest pointer: %w", err)
	}
	var record latestRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to decode latest pointer: %w", err)
	}
	return record.SessionID, nil
}

func (s *FileStore) listIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	return ids, nil
}

// prune deletes the oldest session files beyond the keep limit. Session ids
// sort chronologically, so lexicographic order is creation order.
func (s *FileStore) prune(keepLimit int) error {
	if keepLimit <= 0 {
		return nil
	}

	ids, err := s.listIDs()
	if err != nil {
		return err
	}
	if len(ids) <= keepLimit {
		return nil
	}

	sort.Strings(ids)
	for _, id := range ids[:len(ids)-keepLimit] {
		if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to prune session %s: %w", id, err)
		}
		logger.Debug("pruned import session", map[string]interface{}{"session_id": id})
	}
	return nil
}
