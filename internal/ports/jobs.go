package ports

import "policyguard/internal/domain"

// CheckJob is one queued check in a batch. Index is the job's position in
// the input.
type CheckJob struct {
	Index   int
	Request domain.CheckRequest
}

// CheckOutcome is the result of a CheckJob.
type CheckOutcome struct {
	Index  int
	Result domain.CheckResult
	Err    error
}
