package engine

import (
	"policyguard/internal/domain"
	"policyguard/internal/rules"
)

// Assemble reduces matches into a check result: aggregate risk, issues in
// match order and the optional rewrite of text.
func Assemble(text string, matches []Finding) domain.CheckResult {
	res := domain.CheckResult{
		OverallRisk: Aggregate(matches),
		Issues:      BuildIssues(matches),
	}
	if s, ok := Rewrite(text, matches); ok {
		res.SuggestedText = &s
	}
	return res
}

// Check matches text against set and assembles the result.
func Check(text string, set *rules.Set, scope rules.Scope) (domain.CheckResult, []Finding) {
	matches := Match(text, set, scope)
	return Assemble(text, matches), matches
}
