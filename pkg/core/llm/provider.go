package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by every provider.
const (
	OptModel       = "model"
	OptTemperature = "temperature"
	OptJSON        = "json"
	OptMaxTokens   = "max_tokens"
)

// modelOption returns options["model"] when set, otherwise def.
func modelOption(options map[string]interface{}, def string) string {
	if val, ok := options[OptModel].(string); ok && val != "" {
		return val
	}
	return def
}

// temperatureOption accepts float64, float32 or int values.
func temperatureOption(options map[string]interface{}, def float64) float64 {
	switch v := options[OptTemperature].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func jsonOption(options map[string]interface{}) bool {
	v, _ := options[OptJSON].(bool)
	return v
}

func maxTokensOption(options map[string]interface{}, def int) int {
	if v, ok := options[OptMaxTokens].(int); ok && v > 0 {
		return v
	}
	return def
}

// truncateBody keeps error messages readable when an API returns a large page.
func truncateBody(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return fmt.Sprintf("%s... [truncated]", body[:limit])
}
