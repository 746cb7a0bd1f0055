package domain

import (
	"strconv"
	"strings"
	"time"
)

// Core domain models shared by the engine, services and adapters. Transport
// shapes live next to their adapter; keep these free of wire concerns beyond
// the JSON names the web client expects.

// PolicyType is the closed set of policy families a check or document can
// belong to.
type PolicyType string

const (
	PolicyConfidentiality       PolicyType = "confidentiality"
	PolicyExternalCommunication PolicyType = "external_communication"
	PolicyDataPrivacy           PolicyType = "data_privacy"
	PolicySecurity              PolicyType = "security"
	PolicyHR                    PolicyType = "hr"
)

// PolicyTypes lists every recognized policy type in declaration order.
var PolicyTypes = []PolicyType{
	PolicyConfidentiality,
	PolicyExternalCommunication,
	PolicyDataPrivacy,
	PolicySecurity,
	PolicyHR,
}

// ParsePolicyType validates s against the closed enum. Matching is exact.
func ParsePolicyType(s string) (PolicyType, error) {
	for _, pt := range PolicyTypes {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", &ValidationError{Field: "policy_type", Reason: "unrecognized policy type " + strconv.Quote(s)}
}

// UnmarshalText rejects values outside the enum so decoded payloads never
// carry an unchecked policy type.
func (p *PolicyType) UnmarshalText(b []byte) error {
	pt, err := ParsePolicyType(string(b))
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// RiskLevel orders check outcomes. The zero value is RiskNone.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
)

var riskNames = [...]string{"NONE", "LOW", "MEDIUM", "HIGH"}

func (r RiskLevel) String() string {
	if r < RiskNone || r > RiskHigh {
		return "UNKNOWN"
	}
	return riskNames[r]
}

// ParseRiskLevel accepts the level name in any case.
func ParseRiskLevel(s string) (RiskLevel, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range riskNames {
		if name == up {
			return RiskLevel(i), nil
		}
	}
	return RiskNone, &ValidationError{Field: "risk", Reason: "unrecognized risk level " + strconv.Quote(s)}
}

func (r RiskLevel) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// ComplianceIssue is the user-facing evidence for one fired rule.
type ComplianceIssue struct {
	Type            string    `json:"type"`
	PolicyReference *string   `json:"policy_reference,omitempty"`
	Excerpt         *string   `json:"excerpt,omitempty"`
	Explanation     string    `json:"explanation"`
	RuleID          string    `json:"rule_id"`
	Severity        RiskLevel `json:"severity"`
}

// CheckResult is the outcome of one compliance check. SuggestedText is nil
// when no fired rule offers a rewrite, which is distinct from an empty
// suggestion.
type CheckResult struct {
	OverallRisk   RiskLevel         `json:"overall_risk"`
	Issues        []ComplianceIssue `json:"issues"`
	SuggestedText *string           `json:"suggested_text"`
}

// LogEntry is the immutable audit snapshot of a completed check.
type LogEntry struct {
	ID            int64             `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	Text          string            `json:"text"`
	Department    *string           `json:"department,omitempty"`
	PolicyType    *PolicyType       `json:"policy_type,omitempty"`
	OverallRisk   RiskLevel         `json:"overall_risk"`
	Issues        []ComplianceIssue `json:"issues"`
	SuggestedText *string           `json:"suggested_text"`
}

// Result returns the check result portion of the entry.
func (e LogEntry) Result() CheckResult {
	return CheckResult{OverallRisk: e.OverallRisk, Issues: e.Issues, SuggestedText: e.SuggestedText}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (e LogEntry) Clone() LogEntry {
	out := e
	out.Department = cloneString(e.Department)
	out.SuggestedText = cloneString(e.SuggestedText)
	if e.PolicyType != nil {
		pt := *e.PolicyType
		out.PolicyType = &pt
	}
	if e.Issues != nil {
		out.Issues = make([]ComplianceIssue, len(e.Issues))
		for i, is := range e.Issues {
			is.PolicyReference = cloneString(is.PolicyReference)
			is.Excerpt = cloneString(is.Excerpt)
			out.Issues[i] = is
		}
	}
	return out
}

// LogFilter restricts audit log listings. Nil fields do not restrict.
type LogFilter struct {
	Department *string
	Risk       *RiskLevel
	Limit      int
}

// Matches reports whether e passes the filter. Department comparison is
// case-sensitive.
func (f LogFilter) Matches(e LogEntry) bool {
	if f.Department != nil && (e.Department == nil || *e.Department != *f.Department) {
		return false
	}
	if f.Risk != nil && e.OverallRisk != *f.Risk {
		return false
	}
	return true
}

// PolicyDocument is metadata for an uploaded policy file. StorageRef is
// opaque to the engine.
type PolicyDocument struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	StorageRef string     `json:"storage_ref"`
	PolicyType PolicyType `json:"policy_type"`
	Department *string    `json:"department,omitempty"`
	Version    *string    `json:"version,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Supersedes *string    `json:"supersedes,omitempty"`
}

// PolicyFilter restricts policy document listings.
type PolicyFilter struct {
	PolicyType *PolicyType
	Department *string
}

func (f PolicyFilter) Matches(d PolicyDocument) bool {
	if f.PolicyType != nil && d.PolicyType != *f.PolicyType {
		return false
	}
	if f.Department != nil && (d.Department == nil || *d.Department != *f.Department) {
		return false
	}
	return true
}

// StringPtr returns nil for blank input, otherwise a pointer to the trimmed
// value.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CheckRequest is the raw input to a compliance check. PolicyType is kept as
// the caller supplied it and validated once at the service boundary.
type CheckRequest struct {
	Text       string  `json:"text"`
	Department *string `json:"department,omitempty"`
	PolicyType *string `json:"policy_type,omitempty"`
}

// PolicyRegistration is the raw input for registering a policy document.
type PolicyRegistration struct {
	Title      string  `json:"title"`
	StorageRef string  `json:"storage_ref"`
	PolicyType string  `json:"policy_type"`
	Department *string `json:"department,omitempty"`
	Version    *string `json:"version,omitempty"`
}
