package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"policyguard/internal/domain"
	"policyguard/internal/workers/batchcheck"
)

type batchOptions struct {
	workers int
	jsonl   bool
}

type batchLine struct {
	Index  int                 `json:"index"`
	Result *domain.CheckResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Check many messages concurrently",
		Long: `Check every message in a file, one per line, using a pool of workers.

With --jsonl each line is a JSON object {"text", "department", "policy_type"};
otherwise each non-blank line is the message text. Results are printed in
input order, one JSON object per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, o, args[0])
		},
	}
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 4, "Number of concurrent checks")
	cmd.Flags().BoolVar(&o.jsonl, "jsonl", false, "Input lines are JSON check requests")
	return cmd
}

func runBatch(cmd *cobra.Command, g *globalOptions, o *batchOptions, path string) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	reqs, err := readRequests(r, o.jsonl)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := g.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	outcomes := batchcheck.Run(ctx, a.Compliance, reqs, o.workers, logger)
	enc := json.NewEncoder(cmd.OutOrStdout())
	failed := 0
	for _, oc := range outcomes {
		line := batchLine{Index: oc.Index}
		if oc.Err != nil {
			line.Error = oc.Err.Error()
			failed++
		} else {
			res := oc.Result
			line.Result = &res
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(outcomes))
	}
	return nil
}

func readRequests(r io.Reader, jsonl bool) ([]domain.CheckRequest, error) {
	var reqs []domain.CheckRequest
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !jsonl {
			reqs = append(reqs, domain.CheckRequest{Text: line})
			continue
		}
		var req domain.CheckRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}
