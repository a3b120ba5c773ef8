package filing

import "sort"

func sortLocated(l []Located) {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Start < l[j].Start })
}

func sortSpans(s []SectionSpan) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Start != s[j].Start {
			return s[i].Start < s[j].Start
		}
		return s[i].Name < s[j].Name
	})
}
