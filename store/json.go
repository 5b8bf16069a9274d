package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore keeps one JSON object per file and rewrites the whole file on
// every change.
type JSONStore struct {
	mu   sync.Mutex
	path string
	docs map[string]json.RawMessage
}

// OpenJSON opens or creates the JSON document at path. An unreadable
// document still yields a usable, empty store alongside the error.
func OpenJSON(path string) (*JSONStore, error) {
	s := &JSONStore{path: path, docs: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read file %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.docs); err != nil {
		s.docs = make(map[string]json.RawMessage)
		// keep the unreadable document around for inspection
		_ = os.Rename(path, path+".corrupt")
		return s, fmt.Errorf("parse JSON %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file path
func (s *JSONStore) Path() string {
	return s.path
}

// All returns a copy of every document
func (s *JSONStore) All() (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.docs))
	for k, v := range s.docs {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// Put stores a document and flushes the file
func (s *JSONStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append(json.RawMessage(nil), value...)
	return s.flush()
}

// Delete removes a document and flushes the file
func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return nil
	}
	delete(s.docs, key)
	return s.flush()
}

// Replace swaps the whole document set
func (s *JSONStore) Replace(docs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]json.RawMessage, len(docs))
	for k, v := range docs {
		s.docs[k] = append(json.RawMessage(nil), v...)
	}
	return s.flush()
}

// Close is a no-op; every change is already on disk
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) flush() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON for %s: %w", s.path, err)
	}
	data = append(data, '\n')
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes through a temp file and renames it into place so
// readers never see a half-written document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".vidsnatch-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
