package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, id string) *Rule {
	t.Helper()
	set, err := Default()
	require.NoError(t, err)
	r, ok := set.Lookup(id)
	require.True(t, ok, id)
	return r
}

func TestLocateKeywordsCaseInsensitive(t *testing.T) {
	r := mustRule(t, "security-credentials")
	hits := r.Locate("Your PassWord and your API key, then the password again")
	require.Len(t, hits, 2)
	assert.Equal(t, "password", hits[0].Term)
	assert.Equal(t, "PassWord", hits[0].Text)
	assert.Equal(t, 5, hits[0].Start)
	assert.Equal(t, "api key", hits[1].Term)
	assert.Equal(t, "API key", hits[1].Text)

	assert.Empty(t, r.Locate("Let's schedule a call next week."))
}

func TestLocatePatterns(t *testing.T) {
	r := mustRule(t, "pii-identifiers")
	hits := r.Locate("SSN 123-45-6789 on file")
	require.Len(t, hits, 1)
	assert.Equal(t, "123-45-6789", hits[0].Text)

	assert.Empty(t, r.Locate("call 555-1234"))
}

func TestExternalEmail(t *testing.T) {
	r := mustRule(t, "external-recipient")

	assert.Empty(t, r.Locate("cc alice@example.com and bob@mail.example.com"))

	hits := r.Locate("cc alice@example.com and carol@partner.co.uk")
	require.Len(t, hits, 1)
	assert.Equal(t, "carol@partner.co.uk", hits[0].Text)
	assert.Equal(t, "external_email", hits[0].Term)
}

func TestRegistrable(t *testing.T) {
	assert.Equal(t, "example.com", registrable("Mail.Example.COM."))
	assert.Equal(t, "partner.co.uk", registrable("smtp.partner.co.uk"))
	assert.Equal(t, "localhost", registrable("localhost"))
}

func TestExplainFillsPlaceholders(t *testing.T) {
	r := mustRule(t, "security-credentials")
	got := r.Explain("password")
	assert.Contains(t, got, `"password"`)
	assert.Contains(t, got, r.PolicyReference)
	assert.NotContains(t, got, "{")
}

func TestScope(t *testing.T) {
	set, err := Parse([]byte(`rules:
  - id: finance-only
    category: X
    severity: LOW
    keywords: [budget]
    explanation: x
    when: department == "Finance" || policy_type == "confidentiality"
  - id: everywhere
    category: Y
    severity: LOW
    keywords: [budget]
    explanation: y
`))
	require.NoError(t, err)
	scoped, plain := set.Rules()[0], set.Rules()[1]

	assert.True(t, scoped.Applies(Scope{Department: "Finance"}))
	assert.True(t, scoped.Applies(Scope{PolicyType: "confidentiality"}))
	assert.False(t, scoped.Applies(Scope{Department: "Sales"}))
	assert.False(t, scoped.Applies(Scope{}))
	assert.True(t, plain.Applies(Scope{}))
}

func TestScopeFailsOpen(t *testing.T) {
	set, err := Parse([]byte(`rules:
  - id: a
    category: X
    severity: LOW
    keywords: [budget]
    explanation: x
    when: int(department) > 0
`))
	require.NoError(t, err)
	assert.True(t, set.Rules()[0].Applies(Scope{Department: "HR"}))
}

func TestRewriteReplacementIsLiteral(t *testing.T) {
	set, err := Parse([]byte(`rules:
  - id: promo
    category: Marketing
    severity: LOW
    keywords: [discount]
    explanation: x
    rewrite:
      replacement: "$discount_code"
  - id: grouped
    category: Marketing
    severity: LOW
    patterns: ['(coupon) (\d+)']
    explanation: x
    rewrite:
      replacement: "${2}-$1"
`))
	require.NoError(t, err)
	promo, grouped := set.Rules()[0], set.Rules()[1]

	assert.Equal(t, "ask for a $discount_code today", promo.Rewrite("ask for a discount today"))
	assert.Equal(t, "use ${2}-$1 now", grouped.Rewrite("use coupon 42 now"))
}
