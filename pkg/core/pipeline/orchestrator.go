// Package pipeline runs a full filing analysis: SEC lookup, section
// extraction, XBRL ratios, optional narrative insights and peer benchmark,
// then the summary and markdown report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/insight"
	"financial_analyzer/pkg/core/peer"
	"financial_analyzer/pkg/core/report"
	"financial_analyzer/pkg/core/store"
	"financial_analyzer/pkg/core/xbrl"
	"financial_analyzer/pkg/logger"
	"financial_analyzer/pkg/models"
)

var (
	ErrTickerNotFound = errors.New("ticker not found in SEC mapping")
	ErrFilingNotFound = errors.New("no 10-K/10-Q filing found")
)

// Peer scan limits used by full runs.
const (
	RunMaxPeers = 8
	RunMaxScan  = 100
)

// Source is everything a run needs from SEC EDGAR. *edgar.Client satisfies it.
type Source interface {
	peer.Source
	TickerToIdentity(ctx context.Context, ticker string) (*models.CompanyIdentity, error)
	GetLatestFiling(ctx context.Context, cik10, preferredForm string) (*models.FilingMetadata, error)
	GetFilingText(ctx context.Context, url string) (string, error)
}

// RunRepository persists finished runs.
type RunRepository interface {
	Save(ctx context.Context, rec *store.RunRecord) error
}

// Deterministic is the part of a run that needs no model.
type Deterministic struct {
	Identity   models.CompanyIdentity `json:"identity"`
	Filing     models.FilingMetadata  `json:"filing"`
	Sections   *filing.SpanSet        `json:"sections"`
	Financials xbrl.Financials        `json:"financials"`
	Ratios     calc.RatioSet          `json:"ratios"`
	Summary    string                 `json:"summary"`
}

// RunDeterministic resolves the ticker, downloads the latest filing and company
// facts and computes sections, ratios and a ratio-only summary.
func RunDeterministic(ctx context.Context, src Source, ticker, preferredForm string) (*Deterministic, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	identity, err := src.TickerToIdentity(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	meta, err := src.GetLatestFiling(ctx, identity.CIK10, preferredForm)
	if err != nil {
		return nil, fmt.Errorf("latest filing for %s: %w", ticker, err)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s (CIK %s)", ErrFilingNotFound, ticker, identity.CIK10)
	}

	raw, err := src.GetFilingText(ctx, meta.FilingURL)
	if err != nil {
		return nil, fmt.Errorf("download filing %s: %w", meta.AccessionNumber, err)
	}
	sections := filing.NewExtractor(nil).Extract(filing.ToText(raw), meta.Form)

	facts, err := src.GetCompanyFacts(ctx, identity.CIK10)
	if err != nil {
		return nil, fmt.Errorf("company facts for %s: %w", ticker, err)
	}
	financials := xbrl.ExtractLatestFinancials(facts)
	ratios := calc.ComputeRatios(financials)

	return &Deterministic{
		Identity:   *identity,
		Filing:     *meta,
		Sections:   sections,
		Financials: financials,
		Ratios:     ratios,
		Summary: report.BuildInvestmentSummary(report.SummaryInput{
			CompanyName: identity.DisplayName(),
			Ticker:      identity.Ticker,
			FilingForm:  meta.Form,
			Ratios:      ratios,
		}),
	}, nil
}

type Request struct {
	Ticker        string `json:"ticker"`
	PreferredForm string `json:"preferred_form"`
	RunInsights   bool   `json:"run_insights"`
	RunPeers      bool   `json:"run_peers"`
	SaveReport    bool   `json:"save_report"`
}

// Result is a finished run. Optional stages leave their fields empty when
// skipped; a failed narrative stage is reported in InsightError.
type Result struct {
	RunID uuid.UUID `json:"run_id"`
	Deterministic

	Insights      *insight.Bundle        `json:"insights,omitempty"`
	EvidenceSpans []insight.EvidenceSpan `json:"evidence_spans,omitempty"`
	InsightError  string                 `json:"insight_error,omitempty"`

	PeerBenchmark  *peer.Benchmark          `json:"peer_benchmark,omitempty"`
	PeerComparison peer.Comparison          `json:"peer_comparison,omitempty"`
	Peers          []models.CompanyIdentity `json:"peers,omitempty"`
	PeerError      string                   `json:"peer_error,omitempty"`

	Markdown   string `json:"markdown"`
	ReportPath string `json:"report_path,omitempty"`
	Persisted  bool   `json:"persisted"`
}

// Orchestrator wires the optional stages around RunDeterministic.
type Orchestrator struct {
	src      Source
	insights *insight.Engine
	peers    *peer.Engine
	reports  *report.Store
	repo     RunRepository

	MaxPeers int
	MaxScan  int
	log      *logger.Logger
}

// NewOrchestrator builds a peer engine on src when peers is nil. A nil
// insights engine makes RunInsights record an error instead of calling a model.
func NewOrchestrator(src Source, insights *insight.Engine, peers *peer.Engine, reports *report.Store, log *logger.Logger) *Orchestrator {
	log = logger.OrNop(log).With("service", "Pipeline")
	if peers == nil {
		peers = peer.NewEngine(src, peer.DefaultWorkers, log)
	}
	return &Orchestrator{
		src:      src,
		insights: insights,
		peers:    peers,
		reports:  reports,
		MaxPeers: RunMaxPeers,
		MaxScan:  RunMaxScan,
		log:      log,
	}
}

// SetRepository enables database persistence of saved runs.
func (o *Orchestrator) SetRepository(repo RunRepository) {
	o.repo = repo
}

// Run executes one analysis. Only deterministic-stage failures and a failed
// report file save are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.New()
	log := o.log.With("run_id", runID.String(), "ticker", req.Ticker)
	log.Info("analysis started", "form", req.PreferredForm, "insights", req.RunInsights, "peers", req.RunPeers)

	det, err := RunDeterministic(ctx, o.src, req.Ticker, req.PreferredForm)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, Deterministic: *det}
	log.Info("deterministic stage done", "form", det.Filing.Form, "sections", det.Sections.Names())

	if req.RunInsights {
		o.runInsights(ctx, log, res)
	}
	if req.RunPeers {
		o.runPeers(ctx, log, res)
	}

	res.Summary = report.BuildInvestmentSummary(report.SummaryInput{
		CompanyName:    det.Identity.DisplayName(),
		Ticker:         det.Identity.Ticker,
		FilingForm:     det.Filing.Form,
		Ratios:         det.Ratios,
		Insights:       res.Insights,
		PeerComparison: res.PeerComparison,
	})
	res.Markdown = report.BuildMarkdownReport(report.ReportInput{
		CompanyName:    det.Identity.DisplayName(),
		Ticker:         det.Identity.Ticker,
		Filing:         &res.Filing,
		Ratios:         det.Ratios,
		Insights:       res.Insights,
		EvidenceSpans:  res.EvidenceSpans,
		PeerComparison: res.PeerComparison,
		SummaryText:    res.Summary,
	})

	if req.SaveReport {
		if err := o.save(ctx, log, res); err != nil {
			return res, err
		}
	}
	log.Info("analysis finished", "report", res.ReportPath, "persisted", res.Persisted)
	return res, nil
}

func (o *Orchestrator) runInsights(ctx context.Context, log *logger.Logger, res *Result) {
	if o.insights == nil {
		res.InsightError = "narrative engine not configured"
		return
	}
	if res.Sections.Len() == 0 {
		res.InsightError = "no narrative sections found in filing"
		log.Warn("skipping insights", "reason", res.InsightError)
		return
	}
	out, err := o.insights.ExtractFromSpans(ctx, res.Filing.Form, res.Sections)
	if err != nil {
		res.InsightError = err.Error()
		log.Warn("insight extraction failed", "error", err)
		return
	}
	res.Insights = &out.Bundle
	res.EvidenceSpans = out.EvidenceSpans
}

func (o *Orchestrator) runPeers(ctx context.Context, log *logger.Logger, res *Result) {
	subs, err := o.src.GetSubmissions(ctx, res.Identity.CIK10)
	if err != nil {
		res.PeerError = err.Error()
		log.Warn("peer stage: submissions failed", "error", err)
		return
	}
	var sic string
	if subs != nil {
		sic = strings.TrimSpace(subs.SIC.String())
	}
	if sic == "" {
		log.Info("peer stage skipped", "reason", "missing SIC")
		return
	}

	peers, err := o.peers.FindSameSICPeers(ctx, sic, res.Identity.CIKInt, o.MaxPeers, o.MaxScan)
	if err != nil {
		res.PeerError = err.Error()
		log.Warn("peer discovery failed", "error", err)
		return
	}
	bench := o.peers.BuildBenchmark(ctx, peers)
	res.Peers = peers
	res.PeerBenchmark = &bench
	res.PeerComparison = peer.Compare(res.Ratios, bench.PeerMedians)
	log.Info("peer benchmark built", "sic", sic, "candidates", len(peers), "used", bench.PeerCountUsed)
}

func (o *Orchestrator) save(ctx context.Context, log *logger.Logger, res *Result) error {
	if o.reports != nil {
		path, err := o.reports.Save(res.Markdown, res.Identity.Ticker, res.Filing.Form)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		res.ReportPath = path
	}
	if o.repo == nil {
		return nil
	}
	rec, err := store.NewRunRecord(res.RunID, res.Identity.Ticker, res.Filing.Form, res.Identity.CIK10, res, res.Markdown)
	if err != nil {
		log.Warn("run not persisted", "error", err)
		return nil
	}
	if err := o.repo.Save(ctx, rec); err != nil {
		log.Warn("run not persisted", "error", err)
		return nil
	}
	res.Persisted = true
	return nil
}
