// Package batchcheck fans a batch of compliance checks out over a fixed pool
// of workers. The check pipeline holds no shared mutable state apart from
// the audit log, so checks run fully in parallel.
package batchcheck

import (
	"context"
	"log/slog"
	"sync"

	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

// Checker performs one compliance check.
type Checker interface {
	CheckCompliance(ctx context.Context, req domain.CheckRequest) (domain.CheckResult, error)
}

// Stream starts concurrency workers that consume jobs until the channel is
// closed or ctx is done. The returned channel is closed once every worker
// has exited. Outcomes arrive in completion order.
func Stream(ctx context.Context, checker Checker, jobs <-chan ports.CheckJob, concurrency int, logger *slog.Logger) <-chan ports.CheckOutcome {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan ports.CheckOutcome, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for {
				var (
					job ports.CheckJob
					ok  bool
				)
				select {
				case <-ctx.Done():
					return
				case job, ok = <-jobs:
					if !ok {
						return
					}
				}
				res, err := checker.CheckCompliance(ctx, job.Request)
				if err != nil {
					logger.Warn("batch check failed", "worker", idx, "job", job.Index, "error", err)
				}
				select {
				case out <- ports.CheckOutcome{Index: job.Index, Result: res, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run checks every request and returns outcomes in input order. Requests not
// processed before ctx is done carry ctx.Err().
func Run(ctx context.Context, checker Checker, reqs []domain.CheckRequest, concurrency int, logger *slog.Logger) []ports.CheckOutcome {
	jobs := make(chan ports.CheckJob)
	go func() {
		defer close(jobs)
		for i, req := range reqs {
			select {
			case <-ctx.Done():
				return
			case jobs <- ports.CheckJob{Index: i, Request: req}:
			}
		}
	}()

	outcomes := make([]ports.CheckOutcome, len(reqs))
	done := make([]bool, len(reqs))
	for o := range Stream(ctx, checker, jobs, concurrency, logger) {
		outcomes[o.Index] = o
		done[o.Index] = true
	}
	for i := range outcomes {
		if !done[i] {
			outcomes[i] = ports.CheckOutcome{Index: i, Err: ctx.Err()}
		}
	}
	return outcomes
}
