package ports

import (
	"context"

	"policyguard/internal/domain"
	"policyguard/internal/rules"
)

// Compliance runs checks and exposes the audit trail.
type Compliance interface {
	CheckCompliance(ctx context.Context, req domain.CheckRequest) (domain.CheckResult, error)
	ListLogs(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, error)
	GetLog(ctx context.Context, id int64) (domain.LogEntry, error)
	Rules() []*rules.Rule
}

// Policies manages policy document metadata.
type Policies interface {
	Register(ctx context.Context, reg domain.PolicyRegistration) (domain.PolicyDocument, error)
	List(ctx context.Context, filter domain.PolicyFilter) ([]domain.PolicyDocument, error)
	Get(ctx context.Context, id string) (domain.PolicyDocument, error)
	Supersede(ctx context.Context, id string, version, storageRef string) (domain.PolicyDocument, error)
}
