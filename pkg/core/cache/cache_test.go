package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStores(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "edgar"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
	ctx := context.Background()
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
				t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
			}
			if err := s.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || string(got) != "v1" {
				t.Fatalf("Get(k) = %q ok=%v err=%v", got, ok, err)
			}
			if err := s.Set(ctx, "k", []byte("v2"), 0); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			if got, _, _ := s.Get(ctx, "k"); string(got) != "v2" {
				t.Errorf("Get after overwrite = %q", got)
			}
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	_ = m.Set(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expired entry returned")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, expired entry should be evicted on read", m.Len())
	}
}

func TestFileStoreExpiryAndCorruption(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return now }

	ctx := context.Background()
	_ = fs.Set(ctx, "facts", []byte(`{"a":1}`), 24*time.Hour)
	now = now.Add(25 * time.Hour)
	if _, ok, _ := fs.Get(ctx, "facts"); ok {
		t.Error("expired file entry returned")
	}
	if _, err := os.Stat(filepath.Join(dir, KeyHash("facts")+".json")); !os.IsNotExist(err) {
		t.Errorf("expired file not removed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, KeyHash("bad")+".json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := fs.Get(ctx, "bad"); ok || err != nil {
		t.Errorf("corrupt entry: ok=%v err=%v", ok, err)
	}
}

func TestFromEnvFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	s := FromEnv(context.Background(), "", dir, nil)
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("FromEnv = %T, want *FileStore", s)
	}
	if _, ok := FromEnv(context.Background(), "", "", nil).(*MemoryStore); !ok {
		t.Error("FromEnv without dir should use memory")
	}
}
