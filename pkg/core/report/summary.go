// Package report renders analysis results as a plain-text investment summary
// and a markdown report, and keeps saved reports on disk.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/insight"
	"financial_analyzer/pkg/core/peer"
)

const (
	SummaryDisclaimer = "This output is for research/education and not investment advice."
	ReportDisclaimer  = "Disclaimer: This report is for educational/research use and is not investment advice."
	notAvailable      = "n/a"
)

// SummaryInput carries what the summary needs. Insights and PeerComparison
// are optional.
type SummaryInput struct {
	CompanyName    string
	Ticker         string
	FilingForm     string
	Ratios         calc.RatioSet
	Insights       *insight.Bundle
	PeerComparison peer.Comparison
}

// BuildInvestmentSummary returns a short newline-separated summary.
func BuildInvestmentSummary(in SummaryInput) string {
	lines := []string{
		fmt.Sprintf("%s (%s) analysis based on latest %s.", in.CompanyName, in.Ticker, in.FilingForm),
		SummaryDisclaimer,
		fmt.Sprintf("Ratio snapshot: Net margin %s, Debt-to-equity %s, Current ratio %s.",
			fmtPct(in.Ratios.Value(calc.KeyNetMargin)),
			fmtNum(in.Ratios.Value(calc.KeyDebtToEquity)),
			fmtNum(in.Ratios.Value(calc.KeyCurrentRatio))),
	}

	if len(in.PeerComparison) > 0 {
		if d := in.PeerComparison[calc.KeyOperatingMargin].DeltaVsPeer; d != nil {
			direction := "above"
			if *d < 0 {
				direction = "below"
			}
			lines = append(lines, fmt.Sprintf("Operating margin is %.2f %s peer median.", math.Abs(*d), direction))
		} else {
			lines = append(lines, "Peer comparison is limited due to sparse peer data.")
		}
	}

	if in.Insights != nil {
		if trends := firstN(in.Insights.RevenueTrends, 2); len(trends) > 0 {
			lines = append(lines, "Revenue trends: "+strings.Join(trends, "; "))
		}
		if flags := firstN(in.Insights.RedFlags, 2); len(flags) > 0 {
			lines = append(lines, "Potential red flags: "+strings.Join(flags, "; "))
		}
	}
	return strings.Join(lines, "\n")
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func fmtPct(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func fmtNum(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

// fmtValue renders a raw value with the shortest exact representation.
func fmtValue(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return formatFloat(*v)
}

func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
