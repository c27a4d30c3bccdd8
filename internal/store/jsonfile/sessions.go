// Package jsonfile implements session persistence using one JSON file per
// session plus a lightweight index for listings.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/colonyops/tick/internal/core/run"
)

var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// IndexEntry is one row of the session index file.
type IndexEntry struct {
	ID          string     `json:"id"`
	ChecklistID string     `json:"checklist_id"`
	Status      run.Status `json:"status"`
	Answered    int        `json:"answered"`
	Total       int        `json:"total"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SessionStore implements run.Store using JSON files under a base
// directory: session-<id>.json per session, session-index.json for
// listings. Writes are atomic (temp file + rename). The index is a
// performance aid only; a missing or corrupt index is rebuilt by scanning.
type SessionStore struct {
	dir string
	mu  sync.RWMutex
}

var _ run.Store = (*SessionStore)(nil)

// NewSessionStore creates a session store rooted at dir.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

// Dir returns the store's base directory.
func (s *SessionStore) Dir() string { return s.dir }

// Save persists a session and refreshes the index.
func (s *SessionStore) Save(sess *run.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.pathFor(sess.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	entries := s.loadIndex()
	if entries == nil {
		entries = s.scan()
	}
	entries[sess.ID] = IndexEntry{
		ID:          sess.ID,
		ChecklistID: sess.ChecklistID,
		Status:      sess.Status,
		Answered:    len(sess.Responses),
		Total:       sess.PlanSize,
		StartedAt:   sess.StartedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	// Index write failures are tolerated; the next listing rebuilds it.
	s.saveIndex(entries)
	return nil
}

// Load returns a session by id. Returns run.ErrNotFound if no file exists.
func (s *SessionStore) Load(id string) (*run.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	return readSession(path)
}

// LoadPath reads a session file directly. The file must be named
// session-<id>.json so stray files are not mistaken for sessions.
func (s *SessionStore) LoadPath(path string) (*run.Session, error) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "session-") || !strings.EqualFold(filepath.Ext(base), ".json") {
		return nil, fmt.Errorf("session file name must be session-<id>.json, got %q", base)
	}
	return readSession(path)
}

// List returns index entries for a checklist id (all when empty), newest
// first.
func (s *SessionStore) List(checklistID string) ([]IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadIndex()
	if entries == nil {
		entries = s.scan()
		s.saveIndex(entries)
	}

	out := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		if checklistID != "" && entry.ChecklistID != checklistID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// LatestInProgress returns the most recently updated in-progress session
// for a checklist id. Returns run.ErrNotFound if there is none.
func (s *SessionStore) LatestInProgress(checklistID string) (*run.Session, error) {
	entries, err := s.List(checklistID)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Status == run.StatusInProgress {
			return s.Load(entry.ID)
		}
	}
	return nil, run.ErrNotFound
}

func (s *SessionStore) pathFor(id string) (string, error) {
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(s.dir, "session-"+id+".json"), nil
}

func (s *SessionStore) indexPath() string {
	return filepath.Join(s.dir, "session-index.json")
}

// loadIndex returns nil when the index is missing or unreadable, signaling
// the caller to rebuild by scanning.
func (s *SessionStore) loadIndex() map[string]IndexEntry {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	out := make(map[string]IndexEntry, len(entries))
	for _, entry := range entries {
		out[entry.ID] = entry
	}
	return out
}

func (s *SessionStore) saveIndex(entries map[string]IndexEntry) {
	list := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = atomicWrite(s.indexPath(), data)
}

// scan rebuilds index entries from the session files on disk, skipping
// anything unreadable.
func (s *SessionStore) scan() map[string]IndexEntry {
	entries := make(map[string]IndexEntry)
	matches, err := filepath.Glob(filepath.Join(s.dir, "session-*.json"))
	if err != nil {
		return entries
	}
	for _, path := range matches {
		if filepath.Base(path) == "session-index.json" {
			continue
		}
		sess, err := readSession(path)
		if err != nil {
			continue
		}
		updated := sess.StartedAt
		if info, err := os.Stat(path); err == nil {
			updated = info.ModTime().UTC()
		}
		entries[sess.ID] = IndexEntry{
			ID:          sess.ID,
			ChecklistID: sess.ChecklistID,
			Status:      sess.Status,
			Answered:    len(sess.Responses),
			Total:       sess.PlanSize,
			StartedAt:   sess.StartedAt,
			UpdatedAt:   updated,
		}
	}
	return entries
}

func readSession(path string) (*run.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, run.ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess run.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", path, err)
	}
	return &sess, nil
}

// atomicWrite writes data to path via a temp file and rename, so an
// interrupted write never leaves a truncated session on disk.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tick-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
