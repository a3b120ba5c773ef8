package report

import (
	"fmt"
	"strings"

	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/insight"
	"financial_analyzer/pkg/core/peer"
	"financial_analyzer/pkg/core/utils"
	"financial_analyzer/pkg/models"
)

// ReportInput carries a full analysis run. Nil or empty optional parts are
// left out of the report.
type ReportInput struct {
	CompanyName    string
	Ticker         string
	Filing         *models.FilingMetadata
	Ratios         calc.RatioSet
	Insights       *insight.Bundle
	EvidenceSpans  []insight.EvidenceSpan
	PeerComparison peer.Comparison
	SummaryText    string
}

// BuildMarkdownReport renders the saved report format.
func BuildMarkdownReport(in ReportInput) string {
	f := in.Filing
	if f == nil {
		f = &models.FilingMetadata{}
	}
	lines := []string{
		fmt.Sprintf("# Financial Statement Analysis Report: %s (%s)", in.CompanyName, in.Ticker),
		"",
		"## Filing Metadata",
		"- Form: " + orNA(f.Form),
		"- Filing Date: " + orNA(f.FilingDate),
		"- Accession Number: " + orNA(f.AccessionNumber),
		"- Filing URL: " + orNA(f.FilingURL),
		"",
		"## Ratio Snapshot",
	}
	for _, key := range presentKeys(in.Ratios) {
		r := in.Ratios[key]
		lines = append(lines, fmt.Sprintf("- %s: value=%s | quality=%s", key, fmtValue(r.Value), orNA(r.Quality)))
	}

	if len(in.PeerComparison) > 0 {
		lines = append(lines, "", "## Peer Comparison")
		for _, key := range presentKeys(in.PeerComparison) {
			d := in.PeerComparison[key]
			lines = append(lines, fmt.Sprintf("- %s: company=%s | peer_median=%s | delta=%s",
				key, fmtValue(d.CompanyValue), fmtValue(d.PeerMedian), fmtValue(d.DeltaVsPeer)))
		}
	}

	if in.Insights != nil {
		lines = append(lines, "", "## AI Insights")
		for _, key := range insight.ListKeys {
			lines = append(lines, "### "+key)
			values := in.Insights.List(key)
			if len(values) == 0 {
				lines = append(lines, "- n/a")
				continue
			}
			for _, v := range values {
				lines = append(lines, "- "+v)
			}
		}
		lines = append(lines, "- confidence: "+formatFloat(in.Insights.Confidence))

		if len(in.EvidenceSpans) > 0 {
			lines = append(lines, "### evidence_spans")
			for _, ev := range in.EvidenceSpans {
				lines = append(lines, "- "+formatEvidence(ev))
			}
		}
	}

	summary := in.SummaryText
	if strings.TrimSpace(summary) == "" {
		summary = notAvailable
	}
	lines = append(lines, "", "## Investment Summary", summary, "", ReportDisclaimer)
	return strings.Join(lines, "\n")
}

// RenderHTML converts a markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	return utils.RenderHTML(markdown)
}

// Sections lists the report's headings in order.
func Sections(markdown string) []string {
	return utils.MarkdownHeadings(markdown)
}

func formatEvidence(ev insight.EvidenceSpan) string {
	if !ev.Matched() {
		return fmt.Sprintf("%s [n/a]: %s", ev.Section, ev.Quote)
	}
	return fmt.Sprintf("%s [%d-%d]: %s", ev.Section, *ev.Start, *ev.End, ev.Quote)
}

// presentKeys returns the calc.RatioKeys the map has, in presentation order.
func presentKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for _, k := range calc.RatioKeys {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
