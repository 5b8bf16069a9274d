package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDataDir is where stores, settings and logs live by default
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", ".vidsnatch")
	}
	return filepath.Join(homeDir, ".vidsnatch")
}

// DefaultDownloadDir is the OS-appropriate default download folder
func DefaultDownloadDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "downloads")
	}
	return filepath.Join(homeDir, "Downloads", "vidsnatch")
}

// ExpandHome resolves a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
