package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/domain"
	"policyguard/internal/rules"
)

func defaultSet(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.Default()
	require.NoError(t, err)
	return set
}

func TestCheckCredentialRequest(t *testing.T) {
	res, matches := Check("Please send me your password by email", defaultSet(t), rules.Scope{})

	assert.Equal(t, domain.RiskHigh, res.OverallRisk)
	require.Len(t, res.Issues, 1)
	require.Len(t, matches, 1)
	is := res.Issues[0]
	assert.Equal(t, "Security Violation", is.Type)
	assert.Equal(t, "security-credentials", is.RuleID)
	assert.Equal(t, domain.RiskHigh, is.Severity)
	require.NotNil(t, is.Excerpt)
	assert.Equal(t, "password", *is.Excerpt)
	require.NotNil(t, is.PolicyReference)
	assert.Contains(t, is.Explanation, "password")

	require.NotNil(t, res.SuggestedText)
	assert.Equal(t, "Please send me your [REDACTED] by email", *res.SuggestedText)
}

func TestCheckCleanText(t *testing.T) {
	res, matches := Check("Let's schedule a call next week.", defaultSet(t), rules.Scope{})
	assert.Equal(t, domain.RiskNone, res.OverallRisk)
	assert.Empty(t, res.Issues)
	assert.Empty(t, matches)
	assert.Nil(t, res.SuggestedText)
}

func TestCheckMultipleRulesInCatalogOrder(t *testing.T) {
	res, _ := Check("Whatever, just send the password asap", defaultSet(t), rules.Scope{})

	assert.Equal(t, domain.RiskHigh, res.OverallRisk)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "security-credentials", res.Issues[0].RuleID)
	assert.Equal(t, "unprofessional-tone", res.Issues[1].RuleID)
	assert.Equal(t, "Whatever", *res.Issues[1].Excerpt, "earliest occurrence wins")

	require.NotNil(t, res.SuggestedText)
	assert.Equal(t, "Whatever, just send the [REDACTED] asap", *res.SuggestedText)
}

func TestMatchCanonicalExcerpt(t *testing.T) {
	matches := Match("Here is the passcode, and the password is below", defaultSet(t), rules.Scope{})
	require.Len(t, matches, 1)
	assert.Equal(t, "password", matches[0].Excerpt)
	assert.Equal(t, 12, matches[0].Offset)
}

func TestMatchSingleTermKeepsOriginalCasing(t *testing.T) {
	matches := Match("PASSCODE attached", defaultSet(t), rules.Scope{})
	require.Len(t, matches, 1)
	assert.Equal(t, "PASSCODE", matches[0].Excerpt)
}

func TestMatchRespectsScope(t *testing.T) {
	set, err := rules.Parse([]byte(`rules:
  - id: finance-forecast
    category: Confidentiality
    severity: MEDIUM
    keywords: [forecast]
    explanation: x
    when: department == "Finance"
`))
	require.NoError(t, err)

	assert.Empty(t, Match("Q3 forecast attached", set, rules.Scope{Department: "Sales"}))
	assert.Len(t, Match("Q3 forecast attached", set, rules.Scope{Department: "Finance"}), 1)
}

func TestRewriteComposesSequentially(t *testing.T) {
	set, err := rules.Parse([]byte(`rules:
  - id: first
    category: A
    severity: LOW
    keywords: [alpha]
    explanation: x
    rewrite:
      replacement: beta
  - id: second
    category: B
    severity: LOW
    keywords: [beta]
    explanation: y
    rewrite:
      replacement: gamma
  - id: third
    category: C
    severity: LOW
    keywords: [alpha]
    explanation: z
`))
	require.NoError(t, err)

	matches := Match("alpha and beta", set, rules.Scope{})
	require.Len(t, matches, 3)
	got, ok := Rewrite("alpha and beta", matches)
	require.True(t, ok)
	assert.Equal(t, "gamma and gamma", got)

	_, ok = Rewrite("alpha", matches[2:])
	assert.False(t, ok, "rules without rewrite yield no suggestion")
}

func TestAggregate(t *testing.T) {
	set := defaultSet(t)
	low, _ := set.Lookup("unprofessional-tone")
	med, _ := set.Lookup("hr-sensitive")
	high, _ := set.Lookup("security-credentials")

	assert.Equal(t, domain.RiskNone, Aggregate(nil))
	assert.Equal(t, domain.RiskLow, Aggregate([]Finding{{Rule: low}}))
	assert.Equal(t, domain.RiskMedium, Aggregate([]Finding{{Rule: low}, {Rule: med}}))
	assert.Equal(t, domain.RiskHigh, Aggregate([]Finding{{Rule: high}, {Rule: low}, {Rule: med}}))
}

func TestBuildIssuesOnePerMatch(t *testing.T) {
	set := defaultSet(t)
	ext, _ := set.Lookup("external-recipient")
	issues := BuildIssues([]Finding{{Rule: ext, Excerpt: "bob@other.org"}})
	require.Len(t, issues, 1)
	assert.Equal(t, "External Communication", issues[0].Type)
	assert.Equal(t, "bob@other.org", *issues[0].Excerpt)
	assert.Contains(t, issues[0].Explanation, "bob@other.org is outside the organisation")
	assert.NotNil(t, BuildIssues(nil))
}

func TestCheckIsDeterministic(t *testing.T) {
	set := defaultSet(t)
	text := "Send salary data and the customer list to jane@rival.io asap"
	first, _ := Check(text, set, rules.Scope{})
	for i := 0; i < 20; i++ {
		again, _ := Check(text, set, rules.Scope{})
		assert.Equal(t, first, again)
	}
	assert.Equal(t, domain.RiskMedium, first.OverallRisk)
	var ids []string
	for _, is := range first.Issues {
		ids = append(ids, is.RuleID)
	}
	assert.Equal(t, []string{"personal-data", "external-recipient", "hr-sensitive", "unprofessional-tone"}, ids)
	assert.Nil(t, first.SuggestedText)
}

func TestCheckPasswordReminder(t *testing.T) {
	res, _ := Check("Hey team, remember to change your password by Friday.", defaultSet(t), rules.Scope{})
	assert.Equal(t, domain.RiskHigh, res.OverallRisk)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "Security Violation", res.Issues[0].Type)
	assert.Contains(t, *res.Issues[0].Excerpt, "password")
	require.NotNil(t, res.SuggestedText)
	assert.Equal(t, "Hey team, remember to change your [REDACTED] by Friday.", *res.SuggestedText)
}

func TestAggregateIsMonotone(t *testing.T) {
	set := defaultSet(t)
	base := "Thanks for the update"
	additions := []string{" asap", " salary", " password", " jo@vendor.net", " 123-45-6789"}

	text := base
	prev := domain.RiskNone
	for _, add := range additions {
		text += add
		res, _ := Check(text, set, rules.Scope{})
		assert.GreaterOrEqual(t, res.OverallRisk, prev, text)
		prev = res.OverallRisk
	}
	assert.Equal(t, domain.RiskHigh, prev)
}

func TestSingleMatchRiskEqualsSeverity(t *testing.T) {
	set := defaultSet(t)
	for _, r := range set.Rules() {
		if len(r.Keywords) == 0 {
			continue
		}
		res, _ := Check("note: "+r.Keywords[0], set, rules.Scope{})
		require.Len(t, res.Issues, 1, r.ID)
		assert.Equal(t, r.Severity, res.OverallRisk, r.ID)
	}
}

func TestCleanTextWithOptionalPatternRuleRejected(t *testing.T) {
	_, err := rules.Parse([]byte(`rules:
  - id: optional
    category: Security Violation
    severity: HIGH
    patterns: ['(secret)?']
    explanation: x
`))
	require.Error(t, err)

	res, _ := Check("Let's schedule a call next week.", defaultSet(t), rules.Scope{})
	assert.Equal(t, domain.RiskNone, res.OverallRisk)
}
