package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/adapters/auditlogtest"
	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

func TestAuditLog(t *testing.T) {
	auditlogtest.Run(t, func(*testing.T) ports.AuditLog { return NewAuditLog() })
}

func TestAuditLogSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	l := NewAuditLog()
	dept := "Finance"
	in := domain.LogEntry{Text: "x", Department: &dept, Issues: []domain.ComplianceIssue{{Type: "A"}}}
	id, err := l.Append(ctx, in)
	require.NoError(t, err)

	dept = "Sales"
	in.Issues[0].Type = "B"

	got, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Finance", *got.Department)
	assert.Equal(t, "A", got.Issues[0].Type)

	*got.Department = "Legal"
	again, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Finance", *again.Department)
}
