// Package config loads runtime settings from the environment (.env aware)
// and agent routing from config/models.yaml.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"financial_analyzer/pkg/core/agent"
)

const (
	DefaultUserAgent       = "YourName your_email@example.com"
	DefaultReportOutputDir = "data/processed/reports"
	DefaultModelsConfig    = "config/models.yaml"
)

// Settings holds every tunable read from the environment.
type Settings struct {
	SECUserAgent       string
	SECRateLimitPerSec float64
	SECTimeout         time.Duration

	OllamaBaseURL   string
	OllamaModel     string
	OllamaTimeout   time.Duration
	MaxSectionChars int
	SectionWorkers  int

	PeerMaxWorkers  int
	ReportOutputDir string

	CacheDir    string
	RedisAddr   string
	DatabaseURL string

	LogMode      string
	APIAddr      string
	ModelsConfig string
	ResourcesDir string
}

// Load reads .env (if present) and then the process environment.
func Load() Settings {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads settings from the current process environment only.
func FromEnv() Settings {
	return Settings{
		SECUserAgent:       String("SEC_USER_AGENT", DefaultUserAgent),
		SECRateLimitPerSec: Float("SEC_RATE_LIMIT_PER_SEC", 5.0),
		SECTimeout:         Seconds("SEC_TIMEOUT_SECONDS", 20),

		OllamaBaseURL:   String("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     String("OLLAMA_MODEL", "llama3.1:8b"),
		OllamaTimeout:   Seconds("OLLAMA_TIMEOUT_SECONDS", 90),
		MaxSectionChars: Int("LLM_MAX_SECTION_CHARS", 12000),
		SectionWorkers:  Int("LLM_SECTION_WORKERS", 1),

		PeerMaxWorkers:  Int("PEER_MAX_WORKERS", 4),
		ReportOutputDir: String("REPORT_OUTPUT_DIR", DefaultReportOutputDir),

		CacheDir:    String("CACHE_DIR", ".cache/edgar"),
		RedisAddr:   String("REDIS_ADDR", ""),
		DatabaseURL: String("DATABASE_URL", ""),

		LogMode:      String("LOG_MODE", "dev"),
		APIAddr:      String("API_ADDR", ":8080"),
		ModelsConfig: String("MODELS_CONFIG", DefaultModelsConfig),
		ResourcesDir: String("RESOURCES_DIR", "resources"),
	}
}

// LoadAgentConfig parses the models.yaml routing file. A missing file yields
// the default routing (ollama for every agent).
func LoadAgentConfig(path string) (agent.Config, error) {
	cfg := agent.Config{ActiveProvider: "ollama"}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = "ollama"
	}
	return cfg, nil
}

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Float(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Seconds reads an integer number of seconds.
func Seconds(name string, def int) time.Duration {
	return time.Duration(Int(name, def)) * time.Second
}
