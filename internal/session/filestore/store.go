// Package filestore implements session.Store on a local JSON file.
// Intended for development and single-instance deployments without Redis.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Yulia51188/fish-house/internal/session"
)

// Store provides thread-safe persistent storage for session entries.
type Store struct {
	mu      sync.RWMutex
	path    string
	keys    session.Keys
	entries map[string]string
}

var _ session.Store = (*Store)(nil)

// New creates a new Store. If the file exists, it loads existing data.
func New(path string) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]string),
	}
	s.load()
	return s
}

// load reads data from file. Invalid JSON is treated as an empty store.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		slog.Warn("Invalid session file, starting with empty store", "path", s.path, "error", err)
	}
	// JSON "null" at root leaves a nil map
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
}

// save writes data to file atomically. Caller holds the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}

func (s *Store) get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (s *Store) set(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.entries[k] = v
	}
	if err := s.save(); err != nil {
		return fmt.Errorf("save session file: %w", err)
	}
	return nil
}

// State returns the conversation's state tag.
func (s *Store) State(_ context.Context, conversationID int64) (string, error) {
	return s.get(s.keys.State(conversationID))
}

// SetState stores the conversation's state tag.
func (s *Store) SetState(_ context.Context, conversationID int64, state string) error {
	return s.set(map[string]string{s.keys.State(conversationID): state})
}

// Page returns the conversation's catalog page index.
func (s *Store) Page(_ context.Context, conversationID int64) (int, error) {
	raw, err := s.get(s.keys.Page(conversationID))
	if err != nil {
		return 0, err
	}
	page, err := session.ParsePage(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid page value %q: %w", raw, err)
	}
	return page, nil
}

// SetPage stores the conversation's catalog page index.
func (s *Store) SetPage(_ context.Context, conversationID int64, page int) error {
	return s.set(map[string]string{s.keys.Page(conversationID): session.FormatPage(page)})
}

// Init writes the state and a zero page with a single file write.
func (s *Store) Init(_ context.Context, conversationID int64, state string) error {
	return s.set(map[string]string{
		s.keys.State(conversationID): state,
		s.keys.Page(conversationID):  session.FormatPage(0),
	})
}
