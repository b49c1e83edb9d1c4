package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benjamonnguyen/studyplan"
)

// CachedBoard is the last board fetched from the server.
type CachedBoard struct {
	Board     studyplan.Board `json:"board"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SaveBoard replaces the cache file at path.
func SaveBoard(path string, b studyplan.Board, fetchedAt time.Time) error {
	data, err := json.MarshalIndent(CachedBoard{Board: b, FetchedAt: fetchedAt.UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	return writeFile(path, data)
}

// LoadBoard reads the cache file. A missing file is studyplan.ErrNotFound.
func LoadBoard(path string) (CachedBoard, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CachedBoard{}, studyplan.ErrNotFound
	}
	if err != nil {
		return CachedBoard{}, fmt.Errorf("failed to read board cache: %w", err)
	}

	var cb CachedBoard
	if err := json.Unmarshal(data, &cb); err != nil {
		return CachedBoard{}, fmt.Errorf("failed to parse board cache: %w", err)
	}
	return cb, nil
}

func SaveToken(path, token string) error {
	return writeFile(path, []byte(token+"\n"))
}

// LoadToken returns "" when no token has been saved.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func ClearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// writeFile writes via a temp file and rename so readers never see a partial
// file.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}
