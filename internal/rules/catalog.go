// Package rules loads and compiles the ordered catalog of detection rules.
//
// A catalog is a YAML document listing rules in evaluation order. Every
// pattern, rewrite and scope expression is compiled when the catalog is
// loaded, so a malformed rule fails startup instead of being skipped at
// check time.
package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"policyguard/internal/domain"
)

//go:embed defaults.yaml
var defaultCatalog []byte

// DefaultReplacement is the redaction token used when a rewrite omits one.
const DefaultReplacement = "[REDACTED]"

// File is the on-disk catalog shape.
type File struct {
	Version int          `yaml:"version"`
	Rules   []Definition `yaml:"rules"`
}

// Definition is one rule as written in the catalog.
type Definition struct {
	ID              string            `yaml:"id"`
	Category        string            `yaml:"category"`
	Severity        string            `yaml:"severity"`
	PolicyType      string            `yaml:"policy_type"`
	PolicyReference string            `yaml:"policy_reference"`
	Keywords        []string          `yaml:"keywords"`
	Patterns        []string          `yaml:"patterns"`
	Canonical       string            `yaml:"canonical"`
	ExternalEmail   *ExternalEmailDef `yaml:"external_email"`
	Explanation     string            `yaml:"explanation"`
	Rewrite         *RewriteDef       `yaml:"rewrite"`
	When            string            `yaml:"when"`
}

// RewriteDef is a pattern to replacement substitution. An empty pattern
// reuses the rule's own keywords and patterns. The replacement is inserted
// literally; `$` has no special meaning.
type RewriteDef struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// ExternalEmailDef flags addresses whose registrable domain is not internal.
type ExternalEmailDef struct {
	InternalDomains []string `yaml:"internal_domains"`
}

// Set is an immutable, ordered collection of compiled rules. It is safe for
// concurrent use.
type Set struct {
	rules []*Rule
}

// Rules returns the rules in evaluation order.
func (s *Set) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Lookup returns the rule with the given id.
func (s *Set) Lookup(id string) (*Rule, bool) {
	for _, r := range s.rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Default compiles the embedded catalog.
func Default() (*Set, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and compiles a catalog from disk.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule catalog %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule catalog %s: %w", path, err)
	}
	return set, nil
}

// Load compiles the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and compiles a YAML catalog.
func Parse(data []byte) (*Set, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &LoadError{Field: "catalog", Cause: err}
	}
	return Compile(f.Rules)
}

// Compile validates and compiles definitions, preserving their order.
func Compile(defs []Definition) (*Set, error) {
	if len(defs) == 0 {
		return nil, &LoadError{Field: "rules", Cause: fmt.Errorf("catalog defines no rules")}
	}
	seen := make(map[string]struct{}, len(defs))
	set := &Set{rules: make([]*Rule, 0, len(defs))}
	for i, def := range defs {
		r, err := compileRule(def)
		if err != nil {
			if le, ok := err.(*LoadError); ok && le.Index == 0 {
				le.Index = i + 1
			}
			return nil, err
		}
		if _, dup := seen[r.ID]; dup {
			return nil, &LoadError{Index: i + 1, RuleID: r.ID, Field: "id", Cause: fmt.Errorf("duplicate rule id")}
		}
		seen[r.ID] = struct{}{}
		set.rules = append(set.rules, r)
	}
	return set, nil
}

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

var knownPlaceholders = map[string]bool{
	"{excerpt}":          true,
	"{category}":         true,
	"{policy_reference}": true,
}

func compileRule(def Definition) (*Rule, error) {
	id := strings.TrimSpace(def.ID)
	fail := func(field string, cause error) error {
		return &LoadError{RuleID: id, Field: field, Cause: cause}
	}
	if id == "" {
		return nil, fail("id", fmt.Errorf("must not be empty"))
	}
	if strings.TrimSpace(def.Category) == "" {
		return nil, fail("category", fmt.Errorf("must not be empty"))
	}
	sev, err := domain.ParseRiskLevel(def.Severity)
	if err != nil || sev == domain.RiskNone {
		return nil, fail("severity", fmt.Errorf("must be one of LOW, MEDIUM, HIGH, got %q", def.Severity))
	}
	r := &Rule{
		ID:              id,
		Category:        strings.TrimSpace(def.Category),
		Severity:        sev,
		PolicyReference: strings.TrimSpace(def.PolicyReference),
		Keywords:        def.Keywords,
		Patterns:        def.Patterns,
		Canonical:       strings.TrimSpace(def.Canonical),
		Explanation:     strings.TrimSpace(def.Explanation),
		When:            strings.TrimSpace(def.When),
	}
	if def.PolicyType != "" {
		pt, err := domain.ParsePolicyType(def.PolicyType)
		if err != nil {
			return nil, fail("policy_type", err)
		}
		r.PolicyType = &pt
	}

	for _, kw := range def.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return nil, fail("keywords", fmt.Errorf("blank keyword"))
		}
		r.terms = append(r.terms, term{source: kw, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw))})
	}
	for _, pat := range def.Patterns {
		re, err := regexp.Compile(`(?i)` + pat)
		if err != nil {
			return nil, fail("patterns", err)
		}
		if re.MatchString("") {
			return nil, fail("patterns", fmt.Errorf("pattern %q matches the empty string", pat))
		}
		r.terms = append(r.terms, term{source: pat, re: re})
	}
	if def.ExternalEmail != nil {
		r.external = newExternalEmail(def.ExternalEmail.InternalDomains)
	}
	if len(r.terms) == 0 && r.external == nil {
		return nil, fail("keywords", fmt.Errorf("rule has no keywords, patterns or external_email matcher"))
	}

	if r.Explanation == "" {
		return nil, fail("explanation", fmt.Errorf("must not be empty"))
	}
	for _, ph := range placeholderRe.FindAllString(r.Explanation, -1) {
		if !knownPlaceholders[ph] {
			return nil, fail("explanation", fmt.Errorf("unknown placeholder %s", ph))
		}
	}

	if def.Rewrite != nil {
		rw, err := compileRewrite(def, r)
		if err != nil {
			return nil, fail("rewrite", err)
		}
		r.rewrite = rw
	}

	if r.When != "" {
		sc, err := compileScope(r.When)
		if err != nil {
			return nil, fail("when", err)
		}
		r.scope = sc
	}
	return r, nil
}

func compileRewrite(def Definition, r *Rule) (*rewrite, error) {
	replacement := def.Rewrite.Replacement
	if replacement == "" {
		replacement = DefaultReplacement
	}
	pattern := strings.TrimSpace(def.Rewrite.Pattern)
	if pattern == "" {
		if len(r.terms) == 0 {
			return nil, fmt.Errorf("pattern is required when the rule has no keywords or patterns")
		}
		alts := make([]string, 0, len(r.terms))
		for _, kw := range def.Keywords {
			alts = append(alts, regexp.QuoteMeta(strings.TrimSpace(kw)))
		}
		for _, p := range def.Patterns {
			alts = append(alts, "(?:"+p+")")
		}
		pattern = strings.Join(alts, "|")
	}
	re, err := regexp.Compile(`(?i)(?:` + pattern + `)`)
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("pattern %q matches the empty string", pattern)
	}
	return &rewrite{re: re, replacement: replacement}, nil
}

// LoadError describes a catalog that cannot be compiled.
type LoadError struct {
	Index  int // 1-based position in the catalog, 0 when not rule specific
	RuleID string
	Field  string
	Cause  error
}

func (e *LoadError) Error() string {
	switch {
	case e.RuleID != "":
		return fmt.Sprintf("rule %q (#%d) field %s: %v", e.RuleID, e.Index, e.Field, e.Cause)
	case e.Index > 0:
		return fmt.Sprintf("rule #%d field %s: %v", e.Index, e.Field, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Field, e.Cause)
	}
}

func (e *LoadError) Unwrap() error { return e.Cause }
