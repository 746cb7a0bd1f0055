package engine

import "policyguard/internal/domain"

// Aggregate returns the highest severity among matches, or RiskNone.
func Aggregate(matches []Finding) domain.RiskLevel {
	risk := domain.RiskNone
	for _, m := range matches {
		if m.Rule.Severity > risk {
			risk = m.Rule.Severity
		}
	}
	return risk
}
