package cache

import (
	"context"
	"strings"

	"financial_analyzer/pkg/logger"
)

// FromEnv picks Redis when redisAddr is set and reachable, otherwise a file
// store under dir, otherwise memory. It never fails.
func FromEnv(ctx context.Context, redisAddr, dir string, log *logger.Logger) Store {
	log = logger.OrNop(log)

	if addr := strings.TrimSpace(redisAddr); addr != "" {
		rs, err := NewRedisStore(ctx, addr)
		if err == nil {
			log.Info("using redis cache", "addr", addr)
			return rs
		}
		log.Warn("redis cache unavailable, falling back", "addr", addr, "error", err)
	}
	if strings.TrimSpace(dir) != "" {
		fs, err := NewFileStore(dir)
		if err == nil {
			log.Debug("using file cache", "dir", dir)
			return fs
		}
		log.Warn("file cache unavailable, using memory", "dir", dir, "error", err)
	}
	return NewMemoryStore()
}
