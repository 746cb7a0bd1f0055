package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/adapters/auditlogtest"
	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

func openTemp(t *testing.T, path string) *AuditLog {
	t.Helper()
	l, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAuditLog(t *testing.T) {
	auditlogtest.Run(t, func(t *testing.T) ports.AuditLog {
		return openTemp(t, filepath.Join(t.TempDir(), "audit.db"))
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestHistorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	l, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)
	for _, text := range []string{"first", "second"} {
		_, err := l.Append(ctx, domain.LogEntry{Text: text, OverallRisk: domain.RiskLow})
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	l = openTemp(t, path)
	id, err := l.Append(ctx, domain.LogEntry{Text: "third"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	e, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", e.Text)
	assert.Empty(t, e.Issues)
	assert.Nil(t, e.SuggestedText)
}

func TestRowsAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t, filepath.Join(t.TempDir(), "audit.db"))
	_, err := l.Append(ctx, domain.LogEntry{Text: "keep me"})
	require.NoError(t, err)

	_, err = l.db.ExecContext(ctx, `UPDATE compliance_checks SET text = 'changed' WHERE id = 1`)
	assert.ErrorContains(t, err, "append-only")
	_, err = l.db.ExecContext(ctx, `DELETE FROM compliance_checks WHERE id = 1`)
	assert.ErrorContains(t, err, "append-only")

	e, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "keep me", e.Text)
}

func TestPing(t *testing.T) {
	l := openTemp(t, filepath.Join(t.TempDir(), "audit.db"))
	assert.NoError(t, l.Ping(context.Background()))
}
