package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ChatCompletionsProvider covers any OpenAI-compatible /chat/completions API
// (DeepSeek, Qwen compatible mode, vLLM, LM Studio).
type ChatCompletionsProvider struct {
	Name       string // used as error code prefix, e.g. "DEEPSEEK"
	URL        string // full endpoint URL
	APIKeyEnv  string // env var holding the bearer token; empty means no auth
	Model      string
	HTTPClient *http.Client
}

var _ Provider = (*ChatCompletionsProvider)(nil)

func NewDeepSeekProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:      "DEEPSEEK",
		URL:       "https://api.deepseek.com/chat/completions",
		APIKeyEnv: "DEEPSEEK_API_KEY",
		Model:     "deepseek-chat",
	}
}

func NewQwenProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:      "QWEN",
		URL:       "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
		APIKeyEnv: "DASHSCOPE_API_KEY",
		Model:     "qwen-max",
	}
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type chatCompletionsRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatCompletionsProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	code := strings.ToUpper(p.Name)
	if code == "" {
		code = "CHAT"
	}

	apiKey := ""
	if p.APIKeyEnv != "" {
		apiKey = os.Getenv(p.APIKeyEnv)
		if val, ok := options["api_key"].(string); ok && val != "" {
			apiKey = val
		}
		if apiKey == "" {
			return "", fmt.Errorf("%s_API_KEY_MISSING: Please set %s env var", code, p.APIKeyEnv)
		}
	}

	reqBody := chatCompletionsRequest{
		Messages: []Message{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:       modelOption(options, p.Model),
		MaxTokens:   maxTokensOption(options, 4096),
		Stream:      false,
		Temperature: temperatureOption(options, 1.0),
	}
	if jsonOption(options) {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s_MARSHAL_ERROR: %v", code, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s_REQ_CREATE_ERROR: %v", code, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s_API_CALL_ERROR: %w", code, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s_READ_BODY_ERROR: %v", code, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s_API_ERROR: status=%d found=%s", code, res.StatusCode, truncateBody(body))
	}

	var response chatCompletionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s_UNMARSHAL_ERROR: %v", code, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s_NO_CHOICES: %s", code, truncateBody(body))
	}
	return response.Choices[0].Message.Content, nil
}

func (p *ChatCompletionsProvider) AdaptInstructions(raw string) string {
	return raw
}
