package engine

import (
	"policyguard/internal/rules"
)

// Finding is one fired rule with the evidence that triggered it.
type Finding struct {
	Rule    *rules.Rule
	Excerpt string
	Offset  int // byte offset of the earliest occurrence
}

// Match evaluates every applicable rule against text, independently and in
// catalog order. A rule fires at most once; its excerpt is the earliest
// occurrence of any of its terms, or the rule's canonical keyword when two or
// more distinct terms occur.
func Match(text string, set *rules.Set, scope rules.Scope) []Finding {
	var out []Finding
	for _, r := range set.Rules() {
		if !r.Applies(scope) {
			continue
		}
		hits := r.Locate(text)
		if len(hits) == 0 {
			continue
		}
		first := hits[0]
		for _, h := range hits[1:] {
			if h.Start < first.Start {
				first = h
			}
		}
		excerpt := first.Text
		if len(hits) > 1 && r.Canonical != "" {
			excerpt = r.Canonical
		}
		out = append(out, Finding{Rule: r, Excerpt: excerpt, Offset: first.Start})
	}
	return out
}
