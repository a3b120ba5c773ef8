package filing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
		{"collapses runs", "  Item 1\n\n\tBusiness  ", "Item 1 Business"},
		{"non-breaking space", "Item\u00a01A", "Item 1A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestToText(t *testing.T) {
	raw := `<html><head><title>ignored</title><style>.x{color:red}</style></head><body>
	<div style="display:none"><ix:header>dei:hidden context</ix:header></div>
	<p>Item 1A <b>Risk</b>
	Factors</p><script>var x = 1;</script><p>Debt   covenants apply.</p>
	</body></html>`
	got := ToText(raw)
	want := "Item 1A Risk Factors Debt covenants apply."
	if got != want {
		t.Errorf("ToText = %q, want %q", got, want)
	}
}

func TestToTextFallsBackToRaw(t *testing.T) {
	raw := "<script>only()</script>"
	if got := ToText(raw); got != Normalize(raw) {
		t.Errorf("ToText = %q, want raw fallback %q", got, Normalize(raw))
	}
	if got := ToText("plain  text\nbody"); got != "plain text body" {
		t.Errorf("ToText(plain) = %q", got)
	}
}

func TestToMarkdown(t *testing.T) {
	md, err := ToMarkdown(`<html><body><h2>Item 7</h2><p>Revenue <strong>grew</strong>.</p><script>x()</script></body></html>`)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if !strings.Contains(md, "## Item 7") || !strings.Contains(md, "**grew**") {
		t.Errorf("unexpected markdown: %q", md)
	}
	if strings.Contains(md, "x()") {
		t.Errorf("script content leaked into markdown: %q", md)
	}
}

func TestDetectBoundaries(t *testing.T) {
	text := "PART I ITEM 2 MD&A. PART II ITEM 1A Risk. Item 7A market. item 10 directors"
	got := DetectBoundaries(text)
	want := []int{0, 20, 42, 58, len(text)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectBoundaries = %v, want %v", got, want)
	}
	if got := DetectBoundaries(""); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("DetectBoundaries(\"\") = %v, want [0]", got)
	}
}

func TestDetectBoundariesSentinelDedup(t *testing.T) {
	text := "Item 8"
	got := DetectBoundaries(text)
	want := []int{0, len(text)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectBoundaries = %v, want %v", got, want)
	}
}

func TestLocate10K(t *testing.T) {
	text := "Item 1 Business Text. Item 1A Risk Factors Text. Item 7 MD&A Text. Item 8 Financials."
	got := DefaultLocator().Locate(text, "10-k")
	want := []Located{
		{Name: SectionBusiness, Start: 0, End: 22},
		{Name: SectionRiskFactors, Start: 22, End: 49},
		{Name: SectionMDA, Start: 49, End: 67},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locate = %+v, want %+v", got, want)
	}
}

func TestLocateRejectsLetterSuffix(t *testing.T) {
	// "Item 1 A" and "Item 7A" must not be taken as business/mda headings.
	text := "Item 1 A note. Item 7A Market Risk. Item 1 Business real. Item 7 MD&A real."
	got := DefaultLocator().Locate(text, "10-K")
	starts := map[string]int{}
	for _, l := range got {
		starts[l.Name] = l.Start
	}
	if s := starts[SectionBusiness]; !strings.HasPrefix(text[s:], "Item 1 Business") {
		t.Errorf("business located at %q", text[s:])
	}
	if s := starts[SectionMDA]; !strings.HasPrefix(text[s:], "Item 7 MD&A") {
		t.Errorf("mda located at %q", text[s:])
	}
}

func TestLocateUnknownDocumentType(t *testing.T) {
	for _, docType := range []string{"8-K", "", "S-1", "10-KT"} {
		if got := DefaultLocator().Locate("Item 1 Business text here.", docType); len(got) != 0 {
			t.Errorf("Locate(%q) = %+v, want empty", docType, got)
		}
	}
}

func TestLocateOutOfOrderHeadings(t *testing.T) {
	text := "Item 1A Risk Factors first in this odd filing. Item 1 Business comes second here."
	got := DefaultLocator().Locate(text, "10-K")
	if len(got) != 2 || got[0].Name != SectionRiskFactors || got[1].Name != SectionBusiness {
		t.Fatalf("Locate = %+v", got)
	}
	if got[0].End != got[1].Start {
		t.Errorf("risk_factors should end at the next boundary, got end=%d next=%d", got[0].End, got[1].Start)
	}
	if got[1].End != len(text) {
		t.Errorf("last section should end at text length, got %d", got[1].End)
	}
}

func TestExtract10K(t *testing.T) {
	raw := `<html><body>
	Item 1 Business We sell products globally.
	Item 1A Risk Factors Our business is exposed to supply chain volatility.
	Item 7 Management's Discussion and Analysis Revenue grew year over year.
	Item 8 Financial Statements and Supplementary Data
	</body></html>`
	text := ToText(raw)
	spans := NewExtractor(nil).Extract(text, "10-K")

	if got, want := spans.Names(), []string{SectionBusiness, SectionRiskFactors, SectionMDA}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	checks := map[string]struct{ contains, excludes string }{
		SectionBusiness:    {"We sell products globally.", "Item 1A"},
		SectionRiskFactors: {"supply chain volatility.", "Item 7"},
		SectionMDA:         {"Revenue grew year over year.", "Item 8"},
	}
	for name, c := range checks {
		sp, ok := spans.Get(name)
		if !ok {
			t.Fatalf("missing section %s", name)
		}
		if !strings.Contains(sp.Text, c.contains) {
			t.Errorf("%s text %q missing %q", name, sp.Text, c.contains)
		}
		if strings.Contains(sp.Text, c.excludes) {
			t.Errorf("%s text %q should not contain %q", name, sp.Text, c.excludes)
		}
		if !strings.HasPrefix(text[sp.Start:], sp.Text) {
			t.Errorf("%s offsets do not point at its text", name)
		}
		if sp.End > len(text) || sp.Start > sp.End {
			t.Errorf("%s has invalid offsets %d..%d", name, sp.Start, sp.End)
		}
	}
}

func TestExtract10Q(t *testing.T) {
	sample := `
    PART I ITEM 2 Management's Discussion and Analysis of Financial Condition and Results of Operations
    Quarterly results improved.
    PART II ITEM 1A Risk Factors Inflation and customer concentration may affect results.
    PART II ITEM 6 Exhibits
    `
	sections := NewExtractor(nil).ExtractSections(sample, "10-Q")
	if !strings.Contains(sections[SectionMDA], "Quarterly results improved.") {
		t.Errorf("mda = %q", sections[SectionMDA])
	}
	if strings.Contains(sections[SectionMDA], "PART II") {
		t.Errorf("mda leaked into next part: %q", sections[SectionMDA])
	}
	if !strings.Contains(sections[SectionRiskFactors], "Inflation") {
		t.Errorf("risk_factors = %q", sections[SectionRiskFactors])
	}
	if strings.Contains(sections[SectionRiskFactors], "Exhibits") {
		t.Errorf("risk_factors leaked into Item 6: %q", sections[SectionRiskFactors])
	}
}

func TestExtractDropsDegenerateSpans(t *testing.T) {
	// "Item 7 MD&A Text." is 17 characters, below the minimum.
	text := "Item 1 Business Text. Item 1A Risk Factors Text. Item 7 MD&A Text. Item 8 Financials."
	spans := NewExtractor(nil).Extract(text, "10-K")
	if _, ok := spans.Get(SectionMDA); ok {
		t.Error("degenerate mda span should be dropped")
	}
	biz, ok := spans.Get(SectionBusiness)
	if !ok || biz.Text != "Item 1 Business Text." || biz.Start != 0 || biz.End != 22 {
		t.Errorf("business = %+v", biz)
	}
	for _, sp := range spans.Spans() {
		if len([]rune(sp.Text)) < MinSectionChars {
			t.Errorf("span %s shorter than minimum: %q", sp.Name, sp.Text)
		}
	}
}

func TestExtractSpansIgnoresInvalidRanges(t *testing.T) {
	text := "Item 1 Business has plenty of content here."
	got := ExtractSpans(text, []Located{
		{Name: "bad", Start: 10, End: 5},
		{Name: "oob", Start: 0, End: len(text) + 1},
		{Name: SectionBusiness, Start: 0, End: len(text)},
	})
	if got.Len() != 1 {
		t.Fatalf("Len = %d, want 1", got.Len())
	}
}

func TestSpanSetJSONRoundTrip(t *testing.T) {
	set := NewSpanSet(
		SectionSpan{Name: "mda", Text: "b", Start: 50, End: 60},
		SectionSpan{Name: "business", Text: "a", Start: 0, End: 10},
	)
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"mda":{"text":"b","start":50,"end":60},"business":{"text":"a","start":0,"end":10}}`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var back SpanSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := back.Names(); !reflect.DeepEqual(got, []string{"business", "mda"}) {
		t.Errorf("Names after unmarshal = %v", got)
	}
}

func TestNewLocatorCustomTable(t *testing.T) {
	l := NewLocator(PatternTable{"8-k": {{Name: "event", Pattern: `\bitem\s+8\.01\b`}}})
	if !l.Supports("8-K") {
		t.Fatal("custom table should support 8-K")
	}
	got := l.Locate("Preamble. Item 8.01 Other Events happened today. Item 9.01 Exhibits", "8-K")
	if len(got) != 1 || got[0].Name != "event" {
		t.Fatalf("Locate = %+v", got)
	}
}
