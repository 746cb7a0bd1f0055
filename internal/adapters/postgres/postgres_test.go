package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/adapters/auditlogtest"
	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

// connect returns a migrated database or skips when TEST_DATABASE_URL is
// unset.
func connect(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func reset(t *testing.T, db *DB) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), `TRUNCATE compliance_checks, policy_documents RESTART IDENTITY`)
	require.NoError(t, err)
}

func TestAuditLog(t *testing.T) {
	db := connect(t)
	auditlogtest.Run(t, func(t *testing.T) ports.AuditLog {
		reset(t, db)
		return db.AuditLog()
	})
}

func TestAuditLogRejectsMutation(t *testing.T) {
	db := connect(t)
	reset(t, db)
	ctx := context.Background()
	_, err := db.AuditLog().Append(ctx, domain.LogEntry{CreatedAt: time.Now(), Text: "keep me"})
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `UPDATE compliance_checks SET text = 'changed'`)
	assert.ErrorContains(t, err, "append-only")
	_, err = db.Pool.Exec(ctx, `DELETE FROM compliance_checks`)
	assert.ErrorContains(t, err, "append-only")
}

func TestPolicyRepository(t *testing.T) {
	db := connect(t)
	reset(t, db)
	ctx := context.Background()
	repo := db.Policies()
	hr := "HR"
	v1 := "1"

	first := domain.PolicyDocument{
		ID:         uuid.NewString(),
		Title:      "Handbook",
		StorageRef: "policies/handbook_hr.pdf",
		PolicyType: domain.PolicyHR,
		Department: &hr,
		Version:    &v1,
		CreatedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, first))
	second := first
	second.ID = uuid.NewString()
	second.Version = nil
	second.Supersedes = &first.ID
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, second))

	docs, err := repo.List(ctx, domain.PolicyFilter{Department: &hr})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID)
	require.NotNil(t, docs[0].Supersedes)
	assert.Equal(t, first.ID, *docs[0].Supersedes)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
