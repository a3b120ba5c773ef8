package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"financial_analyzer/pkg/core/llm"
)

// SectionAnalyst is the agent type that reads one filing section at a time.
const SectionAnalyst = "section_analyst"

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`    // Optional model override passed as options["model"]
	Description string `yaml:"description"`
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// DefaultProviders registers every provider the analyzer knows how to call.
func DefaultProviders(ollamaBaseURL, ollamaModel string, ollamaTimeout time.Duration) map[string]llm.Provider {
	return map[string]llm.Provider{
		"ollama":   llm.NewOllamaProvider(ollamaBaseURL, ollamaModel, ollamaTimeout),
		"gemini":   &llm.GeminiProvider{},
		"deepseek": llm.NewDeepSeekProvider(),
		"qwen":     llm.NewQwenProvider(),
	}
}

func NewManager(config Config, providers map[string]llm.Provider) *Manager {
	if providers == nil {
		providers = map[string]llm.Provider{}
	}
	return &Manager{config: config, providers: providers}
}

// GetProvider resolves the provider for an agent type: agent override first,
// then the global active provider. Returns nil when neither is registered.
func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}
	return m.providers[m.config.ActiveProvider]
}

// GetProviderByName retrieves a provider instance by its registered name.
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// ExecutePrompt handles instruction adaptation and model override before
// sending to the resolved provider.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(agentType)
	if provider == nil {
		return "", fmt.Errorf("no provider configured for agent %s (active=%s)", agentType, m.GetActiveProvider())
	}

	merged := make(map[string]interface{}, len(options)+1)
	for k, v := range options {
		merged[k] = v
	}
	m.mu.RLock()
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Model != "" {
		if _, set := merged[llm.OptModel]; !set {
			merged[llm.OptModel] = agentConfig.Model
		}
	}
	m.mu.RUnlock()

	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)
	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, merged)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// AvailableProviders lists registered provider names in sorted order.
func (m *Manager) AvailableProviders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
