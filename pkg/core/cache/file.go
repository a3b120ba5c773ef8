package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists entries as JSON files named by the md5 of the key.
type FileStore struct {
	dir string
	now func() time.Time
}

type fileEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (f *FileStore) Dir() string { return f.dir }

// Get treats unreadable or corrupt files as misses and removes expired ones.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := f.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, nil
	}
	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && f.now().After(e.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (f *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Value: value}
	if ttl > 0 {
		e.ExpiresAt = f.now().Add(ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Write then rename so readers never see a partial file.
	path := f.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename cache file %s: %w", path, err)
	}
	return nil
}

// Clear removes every cached file.
func (f *FileStore) Clear() error {
	if err := os.RemoveAll(f.dir); err != nil {
		return err
	}
	return os.MkdirAll(f.dir, 0o755)
}

func (f *FileStore) pathFor(key string) string {
	return filepath.Join(f.dir, KeyHash(key)+".json")
}

// KeyHash returns the hex md5 of key.
func KeyHash(key string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
