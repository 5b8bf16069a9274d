package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UserSettings represents the settings a user can change at runtime
type UserSettings struct {
	DownloadLocation string `json:"downloadLocation"`
}

// Settings holds the persisted user settings on top of the configured
// defaults. It is safe for concurrent use.
type Settings struct {
	mu       sync.RWMutex
	path     string
	fallback string
	current  UserSettings
}

// LoadSettings reads settings.json from dataDir. A missing file yields the
// defaults; fallbackDir is used while no download location is saved.
func LoadSettings(dataDir, fallbackDir string) (*Settings, error) {
	s := &Settings{
		path:     filepath.Join(dataDir, "settings.json"),
		fallback: fallbackDir,
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// DownloadDir returns the folder downloads are written to
func (s *Settings) DownloadDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.DownloadLocation != "" {
		return s.current.DownloadLocation
	}
	return s.fallback
}

// Get returns the effective settings
func (s *Settings) Get() UserSettings {
	return UserSettings{DownloadLocation: s.DownloadDir()}
}

// SetDownloadDir validates, stores and persists a new download folder
func (s *Settings) SetDownloadDir(path string) error {
	path = ExpandHome(path)
	if err := ValidatePath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	next.DownloadLocation = path

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.current = next
	return nil
}

// ValidatePath checks that path is a writable directory, creating it if needed
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	// Test write permissions by creating a temporary file
	testFile := filepath.Join(path, ".vidsnatch-write-test")
	file, err := os.Create(testFile)
	if err != nil {
		return err
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
