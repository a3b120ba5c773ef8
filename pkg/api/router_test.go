package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"financial_analyzer/pkg/api/analysis"
	"financial_analyzer/pkg/api/config"
	"financial_analyzer/pkg/core/agent"
	"financial_analyzer/pkg/core/llm"
	"financial_analyzer/pkg/core/report"
)

func TestRouter(t *testing.T) {
	mgr := agent.NewManager(agent.Config{ActiveProvider: "ollama"}, map[string]llm.Provider{
		"ollama": llm.NewOllamaProvider("http://127.0.0.1:1", "m", time.Second),
	})
	ah := analysis.NewHandler(nil, report.NewStore(t.TempDir()), nil)
	srv := httptest.NewServer(NewRouter(ah, config.NewHandler(mgr), nil))
	defer srv.Close()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/config", http.StatusOK},
		{http.MethodGet, "/api/reports", http.StatusOK},
		{http.MethodOptions, "/api/analyze", http.StatusOK},
		{http.MethodGet, "/api/analyze", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("CORS header = %q", got)
			}
		})
	}
}
