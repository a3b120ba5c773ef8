package insight

import (
	"strings"
	"unicode/utf8"

	"financial_analyzer/pkg/core/filing"
)

// UnknownSection marks a quote that could not be found in any section.
const UnknownSection = "unknown"

// EvidenceSpan anchors one evidence quote onto the normalized filing text.
// Start and End are nil for unmatched quotes.
type EvidenceSpan struct {
	Quote   string `json:"quote"`
	Section string `json:"section"`
	Start   *int   `json:"start"`
	End     *int   `json:"end"`
}

// Matched reports whether the quote was found in a section.
func (e EvidenceSpan) Matched() bool {
	return e.Start != nil && e.End != nil
}

// AlignEvidence locates each quote inside the spans, in set order, with a
// case-insensitive substring search. The first section containing the quote
// wins. Offsets are absolute byte offsets into the normalized document.
// Paraphrased quotes are expected and come back with section "unknown".
func AlignEvidence(quotes []string, spans *filing.SpanSet) []EvidenceSpan {
	out := make([]EvidenceSpan, 0, len(quotes))
	sections := spans.Spans()
	for _, quote := range quotes {
		out = append(out, alignOne(quote, sections))
	}
	return out
}

func alignOne(quote string, sections []filing.SectionSpan) EvidenceSpan {
	ev := EvidenceSpan{Quote: quote, Section: UnknownSection}
	needle := filing.Normalize(quote)
	if needle == "" {
		return ev
	}
	for _, sp := range sections {
		idx, n := indexFold(sp.Text, needle)
		if idx < 0 {
			continue
		}
		start := sp.Start + idx
		end := start + n
		ev.Section = sp.Name
		ev.Start = &start
		ev.End = &end
		return ev
	}
	return ev
}

// indexFold returns the byte index and byte length of the first
// case-insensitive occurrence of needle in s, or -1, 0.
func indexFold(s, needle string) (int, int) {
	if isASCII(s) && isASCII(needle) {
		i := strings.Index(strings.ToLower(s), strings.ToLower(needle))
		if i < 0 {
			return -1, 0
		}
		return i, len(needle)
	}
	for i := range s {
		if n, ok := prefixFold(s[i:], needle); ok {
			return i, n
		}
	}
	return -1, 0
}

// prefixFold reports whether s starts with prefix under simple case folding
// and how many bytes of s the match covers.
func prefixFold(s, prefix string) (int, bool) {
	i := 0
	for _, pr := range prefix {
		if i >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if sr != pr && !strings.EqualFold(string(sr), string(pr)) {
			return 0, false
		}
		i += size
	}
	return i, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
