package agent

import (
	"context"
	"testing"

	"financial_analyzer/pkg/core/llm"
)

type recordingProvider struct {
	name    string
	options map[string]interface{}
}

func (p *recordingProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	p.options = options
	return p.name, nil
}

func (p *recordingProvider) AdaptInstructions(raw string) string { return raw }

func TestManager_GetProvider(t *testing.T) {
	ollama := &recordingProvider{name: "ollama"}
	gemini := &recordingProvider{name: "gemini"}
	m := NewManager(Config{
		ActiveProvider: "ollama",
		Agents: map[string]AgentConfig{
			SectionAnalyst: {Provider: "gemini"},
			"broken":       {Provider: "does-not-exist"},
		},
	}, map[string]llm.Provider{"ollama": ollama, "gemini": gemini})

	tests := []struct {
		agent string
		want  llm.Provider
	}{
		{SectionAnalyst, gemini},
		{"broken", ollama},
		{"other", ollama},
	}
	for _, tt := range tests {
		t.Run(tt.agent, func(t *testing.T) {
			if got := m.GetProvider(tt.agent); got != tt.want {
				t.Errorf("GetProvider(%s) = %v, want %v", tt.agent, got, tt.want)
			}
		})
	}
}

func TestManager_ExecutePromptModelOverride(t *testing.T) {
	p := &recordingProvider{name: "ollama"}
	m := NewManager(Config{
		ActiveProvider: "ollama",
		Agents:         map[string]AgentConfig{SectionAnalyst: {Model: "qwen2.5:7b"}},
	}, map[string]llm.Provider{"ollama": p})

	out, err := m.ExecutePrompt(context.Background(), SectionAnalyst, "p", "s", map[string]interface{}{llm.OptTemperature: 0.0})
	if err != nil {
		t.Fatalf("ExecutePrompt: %v", err)
	}
	if out != "ollama" {
		t.Errorf("out = %q", out)
	}
	if p.options[llm.OptModel] != "qwen2.5:7b" {
		t.Errorf("model option = %v", p.options[llm.OptModel])
	}
}

func TestManager_SetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "ollama"}, map[string]llm.Provider{
		"ollama": &recordingProvider{}, "gemini": &recordingProvider{},
	})
	if err := m.SetGlobalProvider("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if err := m.SetGlobalProvider("gemini"); err != nil {
		t.Fatalf("SetGlobalProvider: %v", err)
	}
	if m.GetActiveProvider() != "gemini" {
		t.Errorf("active = %s", m.GetActiveProvider())
	}
	if got := m.AvailableProviders(); len(got) != 2 || got[0] != "gemini" {
		t.Errorf("AvailableProviders = %v", got)
	}
}

func TestManager_NoProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "none"}, nil)
	if _, err := m.ExecutePrompt(context.Background(), SectionAnalyst, "p", "s", nil); err == nil {
		t.Error("expected error when no provider is registered")
	}
}
