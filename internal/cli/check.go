package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"policyguard/internal/domain"
)

type checkOptions struct {
	file       string
	department string
	policyType string
	failOn     string
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Check one message",
		Long: `Check one message against the rule catalog and record it in the audit log.

The text is taken from the argument, from --file, or from stdin when neither
is given.

Example:
  policyctl check "Please send me your password by email"
  policyctl check --file draft.txt --department Finance --fail-on medium`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, o, args)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Read the message from a file")
	cmd.Flags().StringVar(&o.department, "department", "", "Department the message belongs to")
	cmd.Flags().StringVar(&o.policyType, "policy-type", "", "Policy type to check against")
	cmd.Flags().StringVar(&o.failOn, "fail-on", "", "Exit non-zero when overall risk is at or above this level")
	return cmd
}

// RiskThresholdError is returned when a check meets the --fail-on level.
type RiskThresholdError struct {
	Risk      domain.RiskLevel
	Threshold domain.RiskLevel
}

func (e *RiskThresholdError) Error() string {
	return fmt.Sprintf("overall risk %s meets threshold %s", e.Risk, e.Threshold)
}

func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions, args []string) error {
	var threshold domain.RiskLevel
	if o.failOn != "" {
		lvl, err := domain.ParseRiskLevel(o.failOn)
		if err != nil || lvl == domain.RiskNone {
			return fmt.Errorf("--fail-on must be LOW, MEDIUM or HIGH")
		}
		threshold = lvl
	}
	text, err := readText(cmd, o.file, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := g.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := domain.CheckRequest{Text: text}
	if o.department != "" {
		req.Department = &o.department
	}
	if o.policyType != "" {
		req.PolicyType = &o.policyType
	}
	res, err := a.Compliance.CheckCompliance(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if g.output == "json" {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		printResult(out, res)
	}
	if threshold != domain.RiskNone && res.OverallRisk >= threshold {
		return &RiskThresholdError{Risk: res.OverallRisk, Threshold: threshold}
	}
	return nil
}

func readText(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("give the text as an argument or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(b), nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	}
}
