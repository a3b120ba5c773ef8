// Package xbrl maps SEC companyfacts concepts onto the handful of metrics
// the ratio engine needs.
package xbrl

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"financial_analyzer/pkg/models"
)

const (
	Revenue            = "revenue"
	NetIncome          = "net_income"
	Assets             = "assets"
	Liabilities        = "liabilities"
	Equity             = "equity"
	CurrentAssets      = "current_assets"
	CurrentLiabilities = "current_liabilities"
	OperatingIncome    = "operating_income"
	InterestExpense    = "interest_expense"
)

// Metrics lists every mapped metric in report order.
var Metrics = []string{
	Revenue, NetIncome, Assets, Liabilities, Equity,
	CurrentAssets, CurrentLiabilities, OperatingIncome, InterestExpense,
}

// ConceptMap lists us-gaap concepts per metric, most preferred first.
var ConceptMap = map[string][]string{
	Revenue:            {"Revenues", "SalesRevenueNet", "RevenueFromContractWithCustomerExcludingAssessedTax"},
	NetIncome:          {"NetIncomeLoss", "ProfitLoss"},
	Assets:             {"Assets"},
	Liabilities:        {"Liabilities"},
	Equity:             {"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"},
	CurrentAssets:      {"AssetsCurrent"},
	CurrentLiabilities: {"LiabilitiesCurrent"},
	OperatingIncome:    {"OperatingIncomeLoss"},
	InterestExpense:    {"InterestExpense"},
}

// Financials maps metric -> latest value; nil means not reported.
type Financials map[string]*float64

// Get returns nil for missing metrics.
func (f Financials) Get(metric string) *float64 {
	if f == nil {
		return nil
	}
	return f[metric]
}

// F is a helper for building Financials literals.
func F(v float64) *float64 { return &v }

// LatestValue returns the newest USD value of concept, ordering points by
// end date then filed date. Unparseable values are skipped.
func LatestValue(usGaap map[string]models.Concept, concept string) *float64 {
	c, ok := usGaap[concept]
	if !ok {
		return nil
	}
	points := c.Units["USD"]
	if len(points) == 0 {
		return nil
	}

	sorted := make([]models.FactPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].End != sorted[j].End {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Filed > sorted[j].Filed
	})

	for _, p := range sorted {
		if v, ok := parseValue(p.Val); ok {
			return &v
		}
	}
	return nil
}

// ExtractLatestFinancials resolves every metric through its fallback chain.
func ExtractLatestFinancials(facts *models.CompanyFacts) Financials {
	usGaap := facts.USGAAP()
	out := make(Financials, len(Metrics))
	for _, metric := range Metrics {
		var value *float64
		for _, concept := range ConceptMap[metric] {
			if value = LatestValue(usGaap, concept); value != nil {
				break
			}
		}
		out[metric] = value
	}
	return out
}

func parseValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
