// Package app assembles the analyzer's collaborators from Settings. Both the
// CLI and the HTTP server build on it.
package app

import (
	"context"
	"path/filepath"

	"financial_analyzer/pkg/config"
	"financial_analyzer/pkg/core/agent"
	"financial_analyzer/pkg/core/cache"
	"financial_analyzer/pkg/core/edgar"
	"financial_analyzer/pkg/core/insight"
	"financial_analyzer/pkg/core/peer"
	"financial_analyzer/pkg/core/pipeline"
	"financial_analyzer/pkg/core/prompt"
	"financial_analyzer/pkg/core/report"
	"financial_analyzer/pkg/core/store"
	"financial_analyzer/pkg/logger"
)

type App struct {
	Settings config.Settings
	Log      *logger.Logger

	Cache    cache.Store
	SEC      *edgar.Client
	Markdown *edgar.MarkdownCache
	Agents   *agent.Manager
	Insights *insight.Engine
	Peers    *peer.Engine
	Reports  *report.Store
	Pipeline *pipeline.Orchestrator
	// Repo is nil unless DATABASE_URL is set and reachable.
	Repo *store.ReportRepo
}

// New never fails on optional infrastructure: an unreachable Redis or
// database is logged and skipped. Only a broken models.yaml is an error.
func New(ctx context.Context, s config.Settings, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	if err := prompt.LoadFromDirectory(s.ResourcesDir); err != nil {
		log.Warn("prompt library not loaded, using built-in prompts", "error", err)
	} else {
		log.Debug("prompt library loaded", "count", prompt.Get().Count(), "dir", s.ResourcesDir)
	}

	agentCfg, err := config.LoadAgentConfig(s.ModelsConfig)
	if err != nil {
		return nil, err
	}
	agents := agent.NewManager(agentCfg, agent.DefaultProviders(s.OllamaBaseURL, s.OllamaModel, s.OllamaTimeout))

	responses := cache.FromEnv(ctx, s.RedisAddr, filepath.Join(s.CacheDir, "http"), log)
	sec := edgar.NewClient(edgar.Config{
		UserAgent:       s.SECUserAgent,
		Timeout:         s.SECTimeout,
		RateLimitPerSec: s.SECRateLimitPerSec,
		Cache:           responses,
	}, log)

	md, err := edgar.NewMarkdownCache(filepath.Join(s.CacheDir, "markdown"))
	if err != nil {
		log.Warn("markdown cache disabled", "error", err)
	}

	insights := insight.NewEngine(agents, nil, s.MaxSectionChars, log)
	insights.Concurrency = s.SectionWorkers
	peers := peer.NewEngine(sec, s.PeerMaxWorkers, log)
	reports := report.NewStore(s.ReportOutputDir)

	a := &App{
		Settings: s,
		Log:      log,
		Cache:    responses,
		SEC:      sec,
		Markdown: md,
		Agents:   agents,
		Insights: insights,
		Peers:    peers,
		Reports:  reports,
		Pipeline: pipeline.NewOrchestrator(sec, insights, peers, reports, log),
	}

	if s.DatabaseURL != "" {
		if err := store.InitDB(ctx, s.DatabaseURL); err != nil {
			log.Warn("database disabled", "error", err)
		} else if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
			log.Warn("database disabled", "error", err)
		} else {
			a.Repo = store.NewReportRepo(store.GetPool())
			a.Pipeline.SetRepository(a.Repo)
			log.Info("run persistence enabled")
		}
	}
	return a, nil
}

// Close releases the cache connection and database pool.
func (a *App) Close() {
	if rs, ok := a.Cache.(*cache.RedisStore); ok {
		_ = rs.Close()
	}
	if a.Repo != nil {
		store.Close()
	}
	a.Log.Sync()
}
