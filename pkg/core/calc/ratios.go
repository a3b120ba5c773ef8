package calc

import (
	"math"

	"financial_analyzer/pkg/core/xbrl"
)

// Ratio quality flags.
const (
	QualityOK                  = "ok"
	QualityMissingData         = "missing_data"
	QualityUnstableDenominator = "unstable_denominator"
)

// Ratio names, also the JSON keys of a RatioSet.
const (
	KeyCurrentRatio     = "current_ratio"
	KeyDebtToEquity     = "debt_to_equity"
	KeyNetMargin        = "net_margin"
	KeyROA              = "roa"
	KeyROE              = "roe"
	KeyOperatingMargin  = "operating_margin"
	KeyInterestCoverage = "interest_coverage"
)

// RatioKeys is the fixed presentation order.
var RatioKeys = []string{
	KeyCurrentRatio,
	KeyDebtToEquity,
	KeyNetMargin,
	KeyROA,
	KeyROE,
	KeyOperatingMargin,
	KeyInterestCoverage,
}

// NearZero is the denominator magnitude treated as zero.
const NearZero = 1e-9

type Ratio struct {
	Value   *float64 `json:"value"`
	Quality string   `json:"quality"`
}

// OK reports whether the ratio has a usable value.
func (r Ratio) OK() bool {
	return r.Quality == QualityOK && r.Value != nil
}

// RatioSet maps ratio name -> Ratio.
type RatioSet map[string]Ratio

// Get returns a missing_data ratio for absent keys.
func (s RatioSet) Get(key string) Ratio {
	if r, ok := s[key]; ok {
		return r
	}
	return Ratio{Quality: QualityMissingData}
}

// Value is the ratio's value or nil.
func (s RatioSet) Value(key string) *float64 {
	return s.Get(key).Value
}

// SafeRatio divides num by den, flagging missing inputs and near-zero
// denominators instead of producing Inf or NaN.
func SafeRatio(num, den *float64) Ratio {
	if num == nil || den == nil {
		return Ratio{Quality: QualityMissingData}
	}
	if math.Abs(*den) <= NearZero {
		return Ratio{Quality: QualityUnstableDenominator}
	}
	v := *num / *den
	return Ratio{Value: &v, Quality: QualityOK}
}

// ComputeRatios derives the seven ratios from mapped financials. Interest
// coverage uses operating income as the EBIT proxy.
func ComputeRatios(f xbrl.Financials) RatioSet {
	return RatioSet{
		KeyCurrentRatio:     SafeRatio(f.Get(xbrl.CurrentAssets), f.Get(xbrl.CurrentLiabilities)),
		KeyDebtToEquity:     SafeRatio(f.Get(xbrl.Liabilities), f.Get(xbrl.Equity)),
		KeyNetMargin:        SafeRatio(f.Get(xbrl.NetIncome), f.Get(xbrl.Revenue)),
		KeyROA:              SafeRatio(f.Get(xbrl.NetIncome), f.Get(xbrl.Assets)),
		KeyROE:              SafeRatio(f.Get(xbrl.NetIncome), f.Get(xbrl.Equity)),
		KeyOperatingMargin:  SafeRatio(f.Get(xbrl.OperatingIncome), f.Get(xbrl.Revenue)),
		KeyInterestCoverage: SafeRatio(f.Get(xbrl.OperatingIncome), f.Get(xbrl.InterestExpense)),
	}
}
