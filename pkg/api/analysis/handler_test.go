package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"financial_analyzer/pkg/core/edgar"
	"financial_analyzer/pkg/core/pipeline"
	"financial_analyzer/pkg/core/report"
	"financial_analyzer/pkg/models"
)

type fakeRunner struct {
	got pipeline.Request
	res *pipeline.Result
	err error
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = req
	return f.res, f.err
}

func newServer(t *testing.T, runner Runner) (*httptest.Server, *report.Store) {
	t.Helper()
	reports := report.NewStore(t.TempDir())
	r := chi.NewRouter()
	NewHandler(runner, reports, nil).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reports
}

func TestHandleAnalyze(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{
		Deterministic: pipeline.Deterministic{
			Identity: models.CompanyIdentity{Ticker: "FAKE", CompanyName: "Fake Corp"},
			Summary:  "Fake Corp (FAKE) analysis based on latest 10-K.",
		},
	}}
	srv, _ := newServer(t, runner)

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(`{"ticker":" fake ","run_peers":true}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if runner.got.Ticker != "FAKE" || runner.got.PreferredForm != "10-K" || !runner.got.RunPeers {
		t.Errorf("request = %+v", runner.got)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(fmt.Sprint(body["summary"]), "Fake Corp") {
		t.Errorf("summary = %v", body["summary"])
	}
}

func TestHandleAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing ticker", `{"ticker":""}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"unknown ticker", `{"ticker":"NOPE"}`, fmt.Errorf("%w: NOPE", pipeline.ErrTickerNotFound), http.StatusNotFound},
		{"no filing", `{"ticker":"FAKE"}`, fmt.Errorf("%w: FAKE", pipeline.ErrFilingNotFound), http.StatusNotFound},
		{"sec outage", `{"ticker":"FAKE"}`, fmt.Errorf("wrap: %w", &edgar.StatusError{URL: "u", StatusCode: 503}), http.StatusBadGateway},
		{"other", `{"ticker":"FAKE"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, &fakeRunner{err: tt.err})
			resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestHandleSections(t *testing.T) {
	srv, _ := newServer(t, &fakeRunner{})
	doc := `<html><body><p>Item 1 Business</p><p>We make widgets for every market.</p>
<p>Item 1A Risk Factors</p><p>Supply chain volatility could hurt margins.</p>
<p>Item 7 MD&amp;A</p><p>Revenue grew on higher unit volume this year.</p><p>Item 8</p></body></html>`

	resp, err := http.Post(srv.URL+"/api/sections?form=10-K", "text/html", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Form     string                    `json:"form"`
		Names    []string                  `json:"names"`
		Sections map[string]map[string]any `json:"sections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(body.Names, ",") != "business,risk_factors,mda" {
		t.Errorf("names = %v", body.Names)
	}
	if txt := fmt.Sprint(body.Sections["mda"]["text"]); !strings.Contains(txt, "Revenue grew") {
		t.Errorf("mda = %v", body.Sections["mda"])
	}
}

func TestReportsEndpoints(t *testing.T) {
	srv, reports := newServer(t, &fakeRunner{})
	path, err := reports.Save("# Report\n\n- Form: 10-K\n", "FAKE", "10-K")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	name := filepath.Base(path)

	resp, err := http.Get(srv.URL + "/api/reports?limit=5")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	var list struct {
		Reports []report.ReportFile `json:"reports"`
	}
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if len(list.Reports) != 1 || list.Reports[0].Name != name {
		t.Fatalf("reports = %+v", list.Reports)
	}

	resp, err = http.Get(srv.URL + "/api/reports/" + name + "?format=html")
	if err != nil {
		t.Fatalf("GET html: %v", err)
	}
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(page), "<h1>Report</h1>") {
		t.Errorf("html = %q", page)
	}

	for _, bad := range []string{"/api/reports/missing.md", "/api/reports?limit=x"} {
		resp, err := http.Get(srv.URL + bad)
		if err != nil {
			t.Fatalf("GET %s: %v", bad, err)
		}
		resp.Body.Close()
		if resp.StatusCode < 400 {
			t.Errorf("%s status = %d", bad, resp.StatusCode)
		}
	}
}
