package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultOutputDir is where reports land unless configured otherwise.
const DefaultOutputDir = "data/processed/reports"

// Store saves markdown reports as files named {TICKER}_{FORM}_{timestamp}.md.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultOutputDir
	}
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir %s: %w", s.dir, err)
	}
	return nil
}

// Save writes markdown and returns the file path. The timestamp is UTC.
func (s *Store) Save(markdown, ticker, form string) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s_%s.md",
		sanitize(ticker), sanitize(form), s.now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// ReportFile describes one saved report.
type ReportFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ListRecent returns up to limit reports, newest first by modification time.
// limit <= 0 returns all.
func (s *Store) ListRecent(limit int) ([]ReportFile, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read report dir: %w", err)
	}

	var files []ReportFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, ReportFile{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name > files[j].Name
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Read returns a saved report's markdown. name must be a bare file name.
func (s *Store) Read(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".md" {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sanitize upper-cases and keeps letters, digits, '_' and '-'.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r == '_' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
