package ports

import (
	"context"

	"policyguard/internal/domain"
)

// AuditLog is the append-only record of completed checks. Implementations
// assign strictly increasing ids starting at 1 and never reuse them. Entries
// are never updated or deleted.
type AuditLog interface {
	// Append stores a snapshot of entry and returns its assigned id. Any id
	// already set on entry is ignored.
	Append(ctx context.Context, entry domain.LogEntry) (int64, error)
	// List returns matching entries, most recent first.
	List(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, error)
	// Get returns the entry with id or a *domain.NotFoundError.
	Get(ctx context.Context, id int64) (domain.LogEntry, error)
}

// PolicyRepository stores policy document metadata. Documents are immutable;
// a new version is a new document.
type PolicyRepository interface {
	Create(ctx context.Context, doc domain.PolicyDocument) error
	List(ctx context.Context, filter domain.PolicyFilter) ([]domain.PolicyDocument, error)
	Get(ctx context.Context, id string) (domain.PolicyDocument, error)
}

// Pinger reports backend reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
