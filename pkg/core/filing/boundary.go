package filing

import (
	"regexp"
	"sort"
)

// genericBoundary matches any heading-like "Item N[letter]" token, optionally
// prefixed by "Part <roman>".
var genericBoundary = regexp.MustCompile(`(?i)\b(?:part\s+[ivx]+[\s,.-]*)?item\s+\d+[a-z]?\b`)

// DetectBoundaries returns the start offset of every generic heading match
// plus len(text) as a sentinel, sorted ascending without duplicates.
func DetectBoundaries(text string) []int {
	matches := genericBoundary.FindAllStringIndex(text, -1)
	out := make([]int, 0, len(matches)+1)
	for _, m := range matches {
		out = append(out, m[0])
	}
	out = append(out, len(text))
	sort.Ints(out)

	uniq := out[:1]
	for _, b := range out[1:] {
		if b != uniq[len(uniq)-1] {
			uniq = append(uniq, b)
		}
	}
	return uniq
}

// nextBoundary returns the first boundary strictly greater than start, or
// textLen when there is none.
func nextBoundary(boundaries []int, start, textLen int) int {
	i := sort.SearchInts(boundaries, start+1)
	if i < len(boundaries) {
		return boundaries[i]
	}
	return textLen
}
