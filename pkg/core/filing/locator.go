package filing

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Section names produced by the default pattern table.
const (
	SectionBusiness    = "business"
	SectionRiskFactors = "risk_factors"
	SectionMDA         = "mda"
)

// SectionPattern describes how to find the heading of one named section.
type SectionPattern struct {
	Name    string
	Pattern string // RE2 syntax, matched case-insensitively
	// RejectNext drops a candidate when, after optional whitespace, the next
	// character equals this letter (case-insensitive). RE2 has no lookahead,
	// so "item 1 not followed by a" is expressed this way. Zero disables it.
	RejectNext rune
}

// PatternTable maps an upper-case document type to its ordered section patterns.
type PatternTable map[string][]SectionPattern

// DefaultPatterns returns the 10-K and 10-Q heading table.
func DefaultPatterns() PatternTable {
	return PatternTable{
		"10-K": {
			{Name: SectionBusiness, Pattern: `\bitem\s+1\b`, RejectNext: 'a'},
			{Name: SectionRiskFactors, Pattern: `\bitem\s+1a\b`},
			{Name: SectionMDA, Pattern: `\bitem\s+7\b`, RejectNext: 'a'},
		},
		"10-Q": {
			{Name: SectionMDA, Pattern: `\bpart\s+i\s+item\s+2\b`},
			{Name: SectionRiskFactors, Pattern: `\bpart\s+ii\s+item\s+1a\b`},
		},
	}
}

// Located is a section heading position and its computed end (exclusive).
type Located struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type compiledPattern struct {
	name       string
	re         *regexp.Regexp
	rejectNext rune
}

// Locator finds target sections in normalized text. It holds only compiled
// patterns and is safe for concurrent use.
type Locator struct {
	table map[string][]compiledPattern
}

// NewLocator compiles every pattern in the table once. Invalid patterns panic,
// the same way regexp.MustCompile does for package-level tables.
func NewLocator(table PatternTable) *Locator {
	l := &Locator{table: make(map[string][]compiledPattern, len(table))}
	for docType, patterns := range table {
		key := normalizeDocType(docType)
		for _, p := range patterns {
			l.table[key] = append(l.table[key], compiledPattern{
				name:       p.Name,
				re:         regexp.MustCompile(`(?i)` + p.Pattern),
				rejectNext: unicode.ToLower(p.RejectNext),
			})
		}
	}
	return l
}

var defaultLocator = NewLocator(DefaultPatterns())

// DefaultLocator returns the shared locator built from DefaultPatterns.
func DefaultLocator() *Locator { return defaultLocator }

// Supports reports whether the document type has a pattern table.
func (l *Locator) Supports(documentType string) bool {
	_, ok := l.table[normalizeDocType(documentType)]
	return ok
}

// Locate returns target sections ordered by start offset. Unknown document
// types and texts with no target headings yield an empty slice.
func (l *Locator) Locate(text, documentType string) []Located {
	patterns := l.table[normalizeDocType(documentType)]
	if len(patterns) == 0 {
		return nil
	}

	var found []Located
	for _, p := range patterns {
		if start, ok := p.firstMatch(text); ok {
			found = append(found, Located{Name: p.name, Start: start})
		}
	}
	if len(found) == 0 {
		return nil
	}

	boundaries := DetectBoundaries(text)
	sort.SliceStable(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	for i := range found {
		found[i].End = nextBoundary(boundaries, found[i].Start, len(text))
	}
	return found
}

func (p compiledPattern) firstMatch(text string) (int, bool) {
	for _, m := range p.re.FindAllStringIndex(text, -1) {
		if p.rejectNext != 0 && nextLetterIs(text[m[1]:], p.rejectNext) {
			continue
		}
		return m[0], true
	}
	return 0, false
}

func nextLetterIs(rest string, want rune) bool {
	for _, r := range rest {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.ToLower(r) == want
	}
	return false
}

func normalizeDocType(documentType string) string {
	return strings.ToUpper(strings.TrimSpace(documentType))
}
