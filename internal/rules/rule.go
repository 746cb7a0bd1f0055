package rules

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"policyguard/internal/domain"
)

// Rule is a compiled detection rule. Exported fields describe the rule and
// are safe to serialize; matching state is unexported and read-only after
// compilation.
type Rule struct {
	ID              string             `json:"id"`
	Category        string             `json:"category"`
	Severity        domain.RiskLevel   `json:"severity"`
	PolicyType      *domain.PolicyType `json:"policy_type,omitempty"`
	PolicyReference string             `json:"policy_reference,omitempty"`
	Keywords        []string           `json:"keywords,omitempty"`
	Patterns        []string           `json:"patterns,omitempty"`
	Canonical       string             `json:"canonical,omitempty"`
	Explanation     string             `json:"explanation"`
	When            string             `json:"when,omitempty"`

	terms    []term
	external *externalEmail
	rewrite  *rewrite
	scope    *scope
}

type term struct {
	source string
	re     *regexp.Regexp
}

type rewrite struct {
	re          *regexp.Regexp
	replacement string
}

// Hit is the first occurrence of one of a rule's terms in a text.
type Hit struct {
	Term  string
	Start int
	End   int
	Text  string
}

// Locate returns, for every term of the rule that occurs in text, its first
// occurrence. Hits are ordered by term declaration, not by position.
func (r *Rule) Locate(text string) []Hit {
	var hits []Hit
	for _, t := range r.terms {
		loc := t.re.FindStringIndex(text)
		if loc == nil || loc[0] == loc[1] {
			continue
		}
		hits = append(hits, Hit{Term: t.source, Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]})
	}
	if r.external != nil {
		if h, ok := r.external.first(text); ok {
			hits = append(hits, h)
		}
	}
	return hits
}

// HasRewrite reports whether the rule proposes a substitution.
func (r *Rule) HasRewrite() bool { return r.rewrite != nil }

// Rewrite replaces every case-insensitive occurrence in text with the
// literal replacement. It returns text unchanged when the rule has no rewrite.
func (r *Rule) Rewrite(text string) string {
	if r.rewrite == nil {
		return text
	}
	return r.rewrite.re.ReplaceAllLiteralString(text, r.rewrite.replacement)
}

// Applies reports whether the rule is in scope for a check. Rules without a
// scope expression always apply.
func (r *Rule) Applies(s Scope) bool {
	if r.scope == nil {
		return true
	}
	return r.scope.eval(s)
}

// Explain renders the explanation template for a matched excerpt.
func (r *Rule) Explain(excerpt string) string {
	return strings.NewReplacer(
		"{excerpt}", excerpt,
		"{category}", r.Category,
		"{policy_reference}", r.PolicyReference,
	).Replace(r.Explanation)
}

var emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@([a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.[a-z]{2,})\b`)

type externalEmail struct {
	internal map[string]struct{}
}

func newExternalEmail(domains []string) *externalEmail {
	e := &externalEmail{internal: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			e.internal[registrable(d)] = struct{}{}
		}
	}
	return e
}

func (e *externalEmail) first(text string) (Hit, bool) {
	for _, m := range emailRe.FindAllStringSubmatchIndex(text, -1) {
		host := text[m[2]:m[3]]
		if _, ok := e.internal[registrable(host)]; ok {
			continue
		}
		return Hit{Term: "external_email", Start: m[0], End: m[1], Text: text[m[0]:m[1]]}, true
	}
	return Hit{}, false
}

// registrable reduces a host to its eTLD+1 so subdomains of an internal
// domain count as internal.
func registrable(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	r, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return r
}
