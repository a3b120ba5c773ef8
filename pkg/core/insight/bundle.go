// Package insight merges per-section narrative findings from an LLM and
// anchors their evidence quotes back onto filing offsets.
package insight

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payload keys of the narrative step's JSON object.
const (
	KeyRevenueTrends        = "revenue_trends"
	KeyDebtRiskSignals      = "debt_risk_signals"
	KeyRiskFactorHighlights = "risk_factor_highlights"
	KeyRedFlags             = "red_flags"
	KeyManagementCommentary = "management_commentary"
	KeyEvidenceQuotes       = "evidence_quotes"
	KeyConfidence           = "confidence"
)

// ListKeys is the fixed order of the six list fields.
var ListKeys = []string{
	KeyRevenueTrends,
	KeyDebtRiskSignals,
	KeyRiskFactorHighlights,
	KeyRedFlags,
	KeyManagementCommentary,
	KeyEvidenceQuotes,
}

// Bundle is the normalized narrative output for one section or a whole filing.
type Bundle struct {
	RevenueTrends        []string `json:"revenue_trends"`
	DebtRiskSignals      []string `json:"debt_risk_signals"`
	RiskFactorHighlights []string `json:"risk_factor_highlights"`
	RedFlags             []string `json:"red_flags"`
	ManagementCommentary []string `json:"management_commentary"`
	EvidenceQuotes       []string `json:"evidence_quotes"`
	Confidence           float64  `json:"confidence"`
}

// EmptyBundle has empty (non-nil) lists and zero confidence.
func EmptyBundle() Bundle {
	return Bundle{
		RevenueTrends:        []string{},
		DebtRiskSignals:      []string{},
		RiskFactorHighlights: []string{},
		RedFlags:             []string{},
		ManagementCommentary: []string{},
		EvidenceQuotes:       []string{},
	}
}

// List returns the list field for key, or nil for an unknown key.
func (b Bundle) List(key string) []string {
	switch key {
	case KeyRevenueTrends:
		return b.RevenueTrends
	case KeyDebtRiskSignals:
		return b.DebtRiskSignals
	case KeyRiskFactorHighlights:
		return b.RiskFactorHighlights
	case KeyRedFlags:
		return b.RedFlags
	case KeyManagementCommentary:
		return b.ManagementCommentary
	case KeyEvidenceQuotes:
		return b.EvidenceQuotes
	}
	return nil
}

func (b *Bundle) setList(key string, v []string) {
	switch key {
	case KeyRevenueTrends:
		b.RevenueTrends = v
	case KeyDebtRiskSignals:
		b.DebtRiskSignals = v
	case KeyRiskFactorHighlights:
		b.RiskFactorHighlights = v
	case KeyRedFlags:
		b.RedFlags = v
	case KeyManagementCommentary:
		b.ManagementCommentary = v
	case KeyEvidenceQuotes:
		b.EvidenceQuotes = v
	}
}

// IsEmpty reports whether every list is empty.
func (b Bundle) IsEmpty() bool {
	for _, k := range ListKeys {
		if len(b.List(k)) > 0 {
			return false
		}
	}
	return true
}

// NormalizePayload coerces an arbitrary decoded JSON object into a Bundle.
// Non-list fields become empty lists, list items are stringified, and
// confidence is parsed (number or numeric string), defaulted to 0 and
// clamped to [0,1]. It never fails.
func NormalizePayload(payload map[string]any) Bundle {
	b := EmptyBundle()
	for _, key := range ListKeys {
		items, ok := payload[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, stringify(item))
		}
		b.setList(key, out)
	}
	b.Confidence = clampConfidence(parseConfidence(payload[KeyConfidence]))
	return b
}

// normalized returns a defensive copy with non-nil lists and a clamped confidence.
func (b Bundle) normalized() Bundle {
	out := EmptyBundle()
	for _, key := range ListKeys {
		if src := b.List(key); len(src) > 0 {
			out.setList(key, append([]string(nil), src...))
		}
	}
	out.Confidence = clampConfidence(b.Confidence)
	return out
}

func parseConfidence(v any) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case float32:
		return float64(c)
	case int:
		return float64(c)
	case int64:
		return float64(c)
	case json.Number:
		f, err := c.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}

// stringify renders a JSON value as text. null becomes "" (dropped at merge),
// integral numbers print without a decimal part, nested values as compact JSON.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}
