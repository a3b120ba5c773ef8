package edgar

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkdownCache stores converted filing markdown on disk, one file per
// (CIK, accession) pair.
type MarkdownCache struct {
	cacheDir string
}

// NewMarkdownCache creates dir if needed. An empty dir means .cache/edgar/markdown.
func NewMarkdownCache(dir string) (*MarkdownCache, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "edgar", "markdown")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create markdown cache %s: %w", dir, err)
	}
	return &MarkdownCache{cacheDir: dir}, nil
}

func (c *MarkdownCache) cacheKey(cik, accession string) string {
	return fmt.Sprintf("%s_%s", cik, strings.ReplaceAll(accession, "-", ""))
}

func (c *MarkdownCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".md")
}

// Get returns "" when the filing is not cached.
func (c *MarkdownCache) Get(cik, accession string) string {
	data, err := os.ReadFile(c.filePath(c.cacheKey(cik, accession)))
	if err != nil {
		return ""
	}
	return string(data)
}

func (c *MarkdownCache) Set(cik, accession, markdown string) error {
	return os.WriteFile(c.filePath(c.cacheKey(cik, accession)), []byte(markdown), 0o644)
}

func (c *MarkdownCache) Has(cik, accession string) bool {
	_, err := os.Stat(c.filePath(c.cacheKey(cik, accession)))
	return err == nil
}

func (c *MarkdownCache) Dir() string {
	return c.cacheDir
}

// ContentHash is the hex md5 of content, logged next to cached markdown.
func ContentHash(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}
