// Package models holds the SEC EDGAR payloads shared across packages.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CompanyIdentity is a ticker resolved against company_tickers.json.
type CompanyIdentity struct {
	Ticker      string `json:"ticker"`
	CIK10       string `json:"cik_10"`  // zero-padded, used by data.sec.gov
	CIKInt      int    `json:"cik_int"` // used in Archives paths
	CompanyName string `json:"company_name,omitempty"`
}

// DisplayName falls back to the ticker when the SEC title is missing.
func (c CompanyIdentity) DisplayName() string {
	if strings.TrimSpace(c.CompanyName) != "" {
		return c.CompanyName
	}
	return c.Ticker
}

// PadCIK zero-pads a CIK to the 10 digits data.sec.gov expects.
func PadCIK(cik int) string {
	return fmt.Sprintf("%010d", cik)
}

// FilingMetadata locates one filing's primary document.
type FilingMetadata struct {
	Form            string `json:"form"`
	FilingDate      string `json:"filing_date"` // YYYY-MM-DD
	AccessionNumber string `json:"accession_number"`
	PrimaryDocument string `json:"primary_document"`
	CIK10           string `json:"cik_10"`
	CIKInt          int    `json:"cik_int"`
	FilingURL       string `json:"filing_url"`
}

// TickerRecord is one value of company_tickers.json.
type TickerRecord struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Submissions is the subset of data.sec.gov/submissions we read.
type Submissions struct {
	CIK            FlexString `json:"cik"`
	Name           string     `json:"name"`
	SIC            FlexString `json:"sic"`
	SICDescription string     `json:"sicDescription"`
	Tickers        []string   `json:"tickers"`
	Filings        struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds parallel arrays, one entry per filing, newest first.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// CompanyFacts is the XBRL companyfacts payload: taxonomy -> concept.
type CompanyFacts struct {
	CIK        FlexString                    `json:"cik"`
	EntityName string                        `json:"entityName"`
	Facts      map[string]map[string]Concept `json:"facts"`
}

// USGAAP returns the us-gaap taxonomy, or nil.
func (f *CompanyFacts) USGAAP() map[string]Concept {
	if f == nil {
		return nil
	}
	return f.Facts["us-gaap"]
}

type Concept struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactPoint `json:"units"`
}

// FactPoint is one reported value. Val is whatever JSON carried
// (usually a number, sometimes a string or null).
type FactPoint struct {
	End   string `json:"end"`
	Filed string `json:"filed"`
	Form  string `json:"form,omitempty"`
	FY    any    `json:"fy,omitempty"`
	FP    string `json:"fp,omitempty"`
	Val   any    `json:"val"`
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }
