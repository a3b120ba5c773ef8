package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/insight"
	"financial_analyzer/pkg/core/prompt"
	"financial_analyzer/pkg/core/report"
	"financial_analyzer/pkg/core/store"
	"financial_analyzer/pkg/models"
)

const filingHTML = `<html><body>
<p>Item 1 Business</p><p>Fake Corp designs and sells widgets to retailers worldwide.</p>
<p>Item 1A Risk Factors</p><p>Our business is exposed to supply chain volatility and rising rates.</p>
<p>Item 7 Management's Discussion and Analysis</p><p>Revenue grew 12% year over year on strong demand.</p>
<p>Item 8 Financial Statements</p>
</body></html>`

func usd(v float64) models.Concept {
	return models.Concept{Units: map[string][]models.FactPoint{
		"USD": {{End: "2024-12-31", Filed: "2025-02-01", Form: "10-K", Val: v}},
	}}
}

func fakeFacts(scale float64) *models.CompanyFacts {
	return &models.CompanyFacts{Facts: map[string]map[string]models.Concept{
		"us-gaap": {
			"Revenues":            usd(1000 * scale),
			"NetIncomeLoss":       usd(120 * scale),
			"Assets":              usd(2000 * scale),
			"Liabilities":         usd(800 * scale),
			"StockholdersEquity":  usd(1200 * scale),
			"AssetsCurrent":       usd(500 * scale),
			"LiabilitiesCurrent":  usd(250 * scale),
			"OperatingIncomeLoss": usd(200 * scale),
			"InterestExpense":     usd(20 * scale),
		},
	}}
}

type fakeSEC struct {
	rows     []models.TickerRecord
	sic      map[string]string
	facts    map[string]*models.CompanyFacts
	html     string
	noFiling bool
}

func newFakeSEC() *fakeSEC {
	return &fakeSEC{
		rows: []models.TickerRecord{
			{CIK: 1, Ticker: "FAKE", Title: "Fake Corp"},
			{CIK: 2, Ticker: "PEER", Title: "Peer Inc"},
			{CIK: 3, Ticker: "OTHR", Title: "Other Co"},
		},
		sic: map[string]string{
			models.PadCIK(1): "3571",
			models.PadCIK(2): "3571",
			models.PadCIK(3): "6022",
		},
		facts: map[string]*models.CompanyFacts{
			models.PadCIK(1): fakeFacts(1),
			models.PadCIK(2): fakeFacts(2),
		},
		html: filingHTML,
	}
}

func (f *fakeSEC) GetTickerMapping(context.Context) ([]models.TickerRecord, error) {
	return f.rows, nil
}

func (f *fakeSEC) TickerToIdentity(_ context.Context, ticker string) (*models.CompanyIdentity, error) {
	for _, r := range f.rows {
		if r.Ticker == ticker {
			return &models.CompanyIdentity{Ticker: r.Ticker, CIK10: models.PadCIK(r.CIK), CIKInt: r.CIK, CompanyName: r.Title}, nil
		}
	}
	return nil, nil
}

func (f *fakeSEC) GetSubmissions(_ context.Context, cik10 string) (*models.Submissions, error) {
	sic, ok := f.sic[cik10]
	if !ok {
		return nil, errors.New("no submissions")
	}
	return &models.Submissions{SIC: models.FlexString(sic)}, nil
}

func (f *fakeSEC) GetCompanyFacts(_ context.Context, cik10 string) (*models.CompanyFacts, error) {
	facts, ok := f.facts[cik10]
	if !ok {
		return nil, errors.New("no facts")
	}
	return facts, nil
}

func (f *fakeSEC) GetLatestFiling(_ context.Context, cik10, _ string) (*models.FilingMetadata, error) {
	if f.noFiling {
		return nil, nil
	}
	return &models.FilingMetadata{
		Form:            "10-K",
		FilingDate:      "2025-02-01",
		AccessionNumber: "0000000001-25-000001",
		PrimaryDocument: "k.htm",
		CIK10:           cik10,
		CIKInt:          1,
		FilingURL:       "https://example.test/k.htm",
	}, nil
}

func (f *fakeSEC) GetFilingText(context.Context, string) (string, error) {
	return f.html, nil
}

type fakeExecutor struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (f *fakeExecutor) ExecutePrompt(context.Context, string, string, string, map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

type memRepo struct {
	saved []*store.RunRecord
	err   error
}

func (m *memRepo) Save(_ context.Context, rec *store.RunRecord) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func TestRunDeterministic(t *testing.T) {
	det, err := RunDeterministic(context.Background(), newFakeSEC(), " fake ", "10-K")
	if err != nil {
		t.Fatalf("RunDeterministic: %v", err)
	}
	if det.Identity.CIK10 != "0000000001" {
		t.Errorf("CIK10 = %q", det.Identity.CIK10)
	}
	mda, ok := det.Sections.Get(filing.SectionMDA)
	if !ok || !strings.Contains(mda.Text, "Revenue grew 12%") {
		t.Errorf("mda = %+v, %v", mda, ok)
	}
	if strings.Contains(mda.Text, "Item 8") {
		t.Errorf("mda ran past Item 8: %q", mda.Text)
	}
	if got := det.Sections.Names(); len(got) != 3 {
		t.Errorf("sections = %v", got)
	}
	nm := det.Ratios.Get(calc.KeyNetMargin)
	if !nm.OK() || *nm.Value != 0.12 {
		t.Errorf("net_margin = %+v", nm)
	}
	if !strings.Contains(det.Summary, "not investment advice") {
		t.Errorf("summary missing disclaimer: %q", det.Summary)
	}
}

func TestRunDeterministicErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := RunDeterministic(ctx, newFakeSEC(), "NOPE", "10-K"); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("unknown ticker err = %v", err)
	}

	src := newFakeSEC()
	src.noFiling = true
	if _, err := RunDeterministic(ctx, src, "FAKE", "10-K"); !errors.Is(err, ErrFilingNotFound) {
		t.Errorf("no filing err = %v", err)
	}

	src = newFakeSEC()
	delete(src.facts, models.PadCIK(1))
	if _, err := RunDeterministic(ctx, src, "FAKE", "10-K"); err == nil {
		t.Error("missing facts should fail the run")
	}
}

func TestRunDeterministicSectionlessFiling(t *testing.T) {
	src := newFakeSEC()
	src.html = "<html><body><p>Exhibit index only.</p></body></html>"
	det, err := RunDeterministic(context.Background(), src, "FAKE", "10-K")
	if err != nil {
		t.Fatalf("RunDeterministic: %v", err)
	}
	if det.Sections.Len() != 0 {
		t.Errorf("sections = %v", det.Sections.Names())
	}
}

func TestOrchestratorFullRun(t *testing.T) {
	exec := &fakeExecutor{response: `{"revenue_trends": ["Revenue grew 12%"], "red_flags": [],
		"evidence_quotes": ["revenue grew 12% year over year", "not in the filing"], "confidence": 0.8}`}
	engine := insight.NewEngine(exec, prompt.NewRegistry(), 0, nil)
	dir := t.TempDir()
	repo := &memRepo{}

	o := NewOrchestrator(newFakeSEC(), engine, nil, report.NewStore(dir), nil)
	o.SetRepository(repo)

	res, err := o.Run(context.Background(), Request{Ticker: "FAKE", PreferredForm: "10-K", RunInsights: true, RunPeers: true, SaveReport: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if exec.calls != 3 {
		t.Errorf("model calls = %d, want one per section", exec.calls)
	}
	if res.Insights == nil || len(res.Insights.RevenueTrends) != 1 {
		t.Fatalf("insights = %+v (err %q)", res.Insights, res.InsightError)
	}
	if len(res.EvidenceSpans) != 2 {
		t.Fatalf("evidence = %+v", res.EvidenceSpans)
	}
	if ev := res.EvidenceSpans[0]; ev.Section != filing.SectionMDA || !ev.Matched() {
		t.Errorf("first evidence = %+v", ev)
	}
	if ev := res.EvidenceSpans[1]; ev.Section != insight.UnknownSection || ev.Matched() {
		t.Errorf("second evidence = %+v", ev)
	}

	if res.PeerBenchmark == nil || res.PeerBenchmark.PeerCountUsed != 1 {
		t.Fatalf("peer benchmark = %+v (err %q)", res.PeerBenchmark, res.PeerError)
	}
	if len(res.Peers) != 1 || res.Peers[0].Ticker != "PEER" {
		t.Errorf("peers = %+v", res.Peers)
	}
	// Scaled facts give identical ratios, so every delta is zero.
	if d := res.PeerComparison[calc.KeyOperatingMargin].DeltaVsPeer; d == nil || *d != 0 {
		t.Errorf("operating margin delta = %v", d)
	}

	for _, want := range []string{"Revenue trends: Revenue grew 12%", "peer median"} {
		if !strings.Contains(res.Summary, want) {
			t.Errorf("summary missing %q:\n%s", want, res.Summary)
		}
	}
	if !strings.Contains(res.Markdown, "## AI Insights") {
		t.Errorf("markdown missing insights:\n%s", res.Markdown)
	}

	if res.ReportPath == "" {
		t.Fatal("report not saved")
	}
	if _, err := os.Stat(res.ReportPath); err != nil {
		t.Errorf("saved report: %v", err)
	}
	if !res.Persisted || len(repo.saved) != 1 || repo.saved[0].RunID != res.RunID {
		t.Errorf("persisted = %v, saved = %d", res.Persisted, len(repo.saved))
	}
}

func TestOrchestratorInsightFailureIsNotFatal(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("OLLAMA_API_ERROR: connection refused")}
	o := NewOrchestrator(newFakeSEC(), insight.NewEngine(exec, prompt.NewRegistry(), 0, nil), nil, nil, nil)

	res, err := o.Run(context.Background(), Request{Ticker: "FAKE", RunInsights: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Insights != nil {
		t.Errorf("insights = %+v", res.Insights)
	}
	if !strings.Contains(res.InsightError, "connection refused") {
		t.Errorf("InsightError = %q", res.InsightError)
	}
	if res.ReportPath != "" || res.Persisted {
		t.Error("nothing should be saved without SaveReport")
	}
}

func TestOrchestratorSkipsPeersWithoutSIC(t *testing.T) {
	src := newFakeSEC()
	src.sic[models.PadCIK(1)] = ""
	o := NewOrchestrator(src, nil, nil, nil, nil)

	res, err := o.Run(context.Background(), Request{Ticker: "FAKE", RunPeers: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PeerBenchmark != nil || res.PeerError != "" {
		t.Errorf("peer stage should be skipped: %+v %q", res.PeerBenchmark, res.PeerError)
	}
	if strings.Contains(res.Summary, "peer") {
		t.Errorf("summary mentions peers: %q", res.Summary)
	}
}

func TestOrchestratorRepoFailureIsLogged(t *testing.T) {
	o := NewOrchestrator(newFakeSEC(), nil, nil, report.NewStore(t.TempDir()), nil)
	o.SetRepository(&memRepo{err: errors.New("db down")})

	res, err := o.Run(context.Background(), Request{Ticker: "FAKE", SaveReport: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ReportPath == "" || res.Persisted {
		t.Errorf("report path %q, persisted %v", res.ReportPath, res.Persisted)
	}
}
