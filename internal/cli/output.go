package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"policyguard/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res domain.CheckResult) {
	fmt.Fprintf(w, "Overall risk: %s\n", res.OverallRisk)
	if len(res.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
	}
	for i, is := range res.Issues {
		fmt.Fprintf(w, "%d. [%s] %s (%s)\n", i+1, is.Severity, is.Type, is.RuleID)
		if is.Excerpt != nil {
			fmt.Fprintf(w, "   excerpt: %q\n", *is.Excerpt)
		}
		if is.PolicyReference != nil {
			fmt.Fprintf(w, "   policy:  %s\n", *is.PolicyReference)
		}
		fmt.Fprintf(w, "   %s\n", is.Explanation)
	}
	if res.SuggestedText != nil {
		fmt.Fprintf(w, "Suggested text:\n%s\n", *res.SuggestedText)
	}
}

func printEntry(w io.Writer, e domain.LogEntry) {
	dept := "-"
	if e.Department != nil {
		dept = *e.Department
	}
	pt := "-"
	if e.PolicyType != nil {
		pt = string(*e.PolicyType)
	}
	fmt.Fprintf(w, "#%d  %s  risk=%s  department=%s  policy_type=%s  issues=%d\n",
		e.ID, e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), e.OverallRisk, dept, pt, len(e.Issues))
	fmt.Fprintf(w, "    %s\n", snippet(e.Text, 72))
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
