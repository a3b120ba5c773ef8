package filing

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// MinSectionChars is the shortest section text (in characters) kept by
// ExtractSpans. Shorter slices are usually a heading followed directly by
// another heading.
const MinSectionChars = 20

// SectionSpan is a named slice of normalized filing text. End is exclusive.
type SectionSpan struct {
	Name  string `json:"-"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SpanSet is an ordered name -> span mapping. Iteration order is ascending
// start offset, which fixes the order downstream consumers see sections in.
type SpanSet struct {
	spans []SectionSpan
	index map[string]int
}

// NewSpanSet builds a set from spans in the given order. A repeated name
// replaces the earlier span in place.
func NewSpanSet(spans ...SectionSpan) *SpanSet {
	s := &SpanSet{index: make(map[string]int, len(spans))}
	for _, sp := range spans {
		s.add(sp)
	}
	return s
}

func (s *SpanSet) add(sp SectionSpan) {
	if i, ok := s.index[sp.Name]; ok {
		s.spans[i] = sp
		return
	}
	s.index[sp.Name] = len(s.spans)
	s.spans = append(s.spans, sp)
}

func (s *SpanSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.spans)
}

func (s *SpanSet) Get(name string) (SectionSpan, bool) {
	if s == nil {
		return SectionSpan{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return SectionSpan{}, false
	}
	return s.spans[i], true
}

// Spans returns a copy of the spans in set order.
func (s *SpanSet) Spans() []SectionSpan {
	if s == nil {
		return nil
	}
	out := make([]SectionSpan, len(s.spans))
	copy(out, s.spans)
	return out
}

func (s *SpanSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.spans))
	for i, sp := range s.spans {
		names[i] = sp.Name
	}
	return names
}

// Texts returns name -> text, dropping offsets.
func (s *SpanSet) Texts() map[string]string {
	out := make(map[string]string, s.Len())
	if s == nil {
		return out
	}
	for _, sp := range s.spans {
		out[sp.Name] = sp.Text
	}
	return out
}

// MarshalJSON writes {"name": {"text","start","end"}, ...} keeping set order.
func (s *SpanSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if s != nil {
		for i, sp := range s.spans {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(sp.Name)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(sp)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form written by MarshalJSON. Order is
// rebuilt from the start offsets.
func (s *SpanSet) UnmarshalJSON(data []byte) error {
	var raw map[string]SectionSpan
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	spans := make([]SectionSpan, 0, len(raw))
	for name, sp := range raw {
		sp.Name = name
		spans = append(spans, sp)
	}
	sortSpans(spans)
	*s = *NewSpanSet(spans...)
	return nil
}

// ExtractSpans slices each located section out of text, re-normalizes it and
// drops anything shorter than MinSectionChars.
func ExtractSpans(text string, located []Located) *SpanSet {
	ordered := make([]Located, len(located))
	copy(ordered, located)
	sortLocated(ordered)

	set := NewSpanSet()
	for _, loc := range ordered {
		if loc.Start < 0 || loc.End > len(text) || loc.Start > loc.End {
			continue
		}
		sectionText := Normalize(text[loc.Start:loc.End])
		if utf8.RuneCountInString(sectionText) < MinSectionChars {
			continue
		}
		set.add(SectionSpan{Name: loc.Name, Text: sectionText, Start: loc.Start, End: loc.End})
	}
	return set
}

// Extractor composes a Locator with span extraction.
type Extractor struct {
	locator *Locator
}

// NewExtractor uses the default locator when l is nil.
func NewExtractor(l *Locator) *Extractor {
	if l == nil {
		l = DefaultLocator()
	}
	return &Extractor{locator: l}
}

// Extract normalizes text (a no-op for ToText output) and returns the
// section spans for the document type.
func (e *Extractor) Extract(text, documentType string) *SpanSet {
	normalized := Normalize(text)
	return ExtractSpans(normalized, e.locator.Locate(normalized, documentType))
}

// ExtractSections is Extract without offsets.
func (e *Extractor) ExtractSections(text, documentType string) map[string]string {
	return e.Extract(text, documentType).Texts()
}
