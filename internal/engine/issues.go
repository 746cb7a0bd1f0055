package engine

import "policyguard/internal/domain"

// BuildIssues converts matches into issue records, one per match, preserving
// order.
func BuildIssues(matches []Finding) []domain.ComplianceIssue {
	issues := make([]domain.ComplianceIssue, 0, len(matches))
	for _, m := range matches {
		excerpt := m.Excerpt
		issues = append(issues, domain.ComplianceIssue{
			Type:            m.Rule.Category,
			PolicyReference: domain.StringPtr(m.Rule.PolicyReference),
			Excerpt:         &excerpt,
			Explanation:     m.Rule.Explain(m.Excerpt),
			RuleID:          m.Rule.ID,
			Severity:        m.Rule.Severity,
		})
	}
	return issues
}

