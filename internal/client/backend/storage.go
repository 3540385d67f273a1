// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists the session between process runs.
type Storage interface {
	// Load returns the stored session, or nil when there is none.
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// # File Storage

// FileStorage keeps the session as a JSON file readable only by the owner.
type FileStorage struct {
	path string
}

// NewFileStorage stores the session at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFileStorage stores the session under the user's config directory.
func DefaultFileStorage() (*FileStorage, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("backend_storage_dir_failed: %w", err)
	}
	return NewFileStorage(filepath.Join(dir, "uservault", "session.json")), nil
}

// Load reads the session file.
func (storage *FileStorage) Load() (*Session, error) {
	raw, err := os.ReadFile(storage.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend_storage_read_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("backend_storage_decode_failed: %w", err)
	}
	return &session, nil
}

// Save writes the session file atomically.
func (storage *FileStorage) Save(session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("backend_storage_encode_failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(storage.path), 0o700); err != nil {
		return fmt.Errorf("backend_storage_mkdir_failed: %w", err)
	}

	tmp := storage.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("backend_storage_write_failed: %w", err)
	}
	return os.Rename(tmp, storage.path)
}

// Clear removes the session file.
func (storage *FileStorage) Clear() error {
	if err := os.Remove(storage.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backend_storage_clear_failed: %w", err)
	}
	return nil
}

// # Memory Storage

// MemoryStorage keeps the session in memory only.
type MemoryStorage struct {
	mu      sync.Mutex
	session *Session
}

// NewMemoryStorage returns an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (storage *MemoryStorage) Load() (*Session, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	return storage.session.clone(), nil
}

func (storage *MemoryStorage) Save(session *Session) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.session = session.clone()
	return nil
}

func (storage *MemoryStorage) Clear() error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.session = nil
	return nil
}
