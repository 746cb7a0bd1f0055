// Package auditlogtest holds behaviour tests shared by every ports.AuditLog
// implementation.
package auditlogtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

// Factory returns an empty audit log for one subtest.
type Factory func(t *testing.T) ports.AuditLog

// Run exercises append, lookup, filtering and concurrent appends.
func Run(t *testing.T, newLog Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newLog(t)) })
	t.Run("IDsStartAtOneAndIncrease", func(t *testing.T) { testIDs(t, newLog(t)) })
	t.Run("ListNewestFirstWithFilters", func(t *testing.T) { testList(t, newLog(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newLog(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrent(t, newLog(t)) })
}

func str(s string) *string { return &s }

func entry(text string, dept *string, risk domain.RiskLevel) domain.LogEntry {
	return domain.LogEntry{
		CreatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 123456000, time.UTC),
		Text:        text,
		Department:  dept,
		OverallRisk: risk,
		Issues:      []domain.ComplianceIssue{},
	}
}

func testRoundTrip(t *testing.T, log ports.AuditLog) {
	ctx := context.Background()
	pt := domain.PolicySecurity
	in := domain.LogEntry{
		ID:          999,
		CreatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 123456000, time.UTC),
		Text:        "Please send me your password by email",
		Department:  str("Finance"),
		PolicyType:  &pt,
		OverallRisk: domain.RiskHigh,
		Issues: []domain.ComplianceIssue{{
			Type:            "Security Violation",
			PolicyReference: str("Information Security Policy §4.1"),
			Excerpt:         str("password"),
			Explanation:     "The text mentions \"password\".",
			RuleID:          "security-credentials",
			Severity:        domain.RiskHigh,
		}},
		SuggestedText: str("Please send me your [REDACTED] by email"),
	}
	id, err := log.Append(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "caller-supplied id is ignored")

	got, err := log.Get(ctx, id)
	require.NoError(t, err)
	want := in
	want.ID = id
	assert.Equal(t, want.CreatedAt.UnixMicro(), got.CreatedAt.UnixMicro())
	got.CreatedAt = want.CreatedAt
	assert.Equal(t, want, got)
}

func testIDs(t *testing.T, log ports.AuditLog) {
	ctx := context.Background()
	var last int64
	for i := 0; i < 5; i++ {
		id, err := log.Append(ctx, entry(fmt.Sprintf("message %d", i), nil, domain.RiskNone))
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, int64(1), id)
		}
		assert.Greater(t, id, last)
		last = id
	}
}

func testList(t *testing.T, log ports.AuditLog) {
	ctx := context.Background()
	seed := []domain.LogEntry{
		entry("one", str("HR"), domain.RiskLow),
		entry("two", str("Finance"), domain.RiskHigh),
		entry("three", nil, domain.RiskNone),
		entry("four", str("HR"), domain.RiskHigh),
		entry("five", str("hr"), domain.RiskHigh),
	}
	for _, e := range seed {
		_, err := log.Append(ctx, e)
		require.NoError(t, err)
	}
	texts := func(es []domain.LogEntry) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.Text
		}
		return out
	}

	all, err := log.List(ctx, domain.LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"five", "four", "three", "two", "one"}, texts(all))

	hr, err := log.List(ctx, domain.LogFilter{Department: str("HR")})
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "one"}, texts(hr))

	high := domain.RiskHigh
	both, err := log.List(ctx, domain.LogFilter{Department: str("HR"), Risk: &high})
	require.NoError(t, err)
	assert.Equal(t, []string{"four"}, texts(both))

	limited, err := log.List(ctx, domain.LogFilter{Risk: &high, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"five", "four"}, texts(limited))

	none, err := log.List(ctx, domain.LogFilter{Department: str("Legal")})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testGetMissing(t *testing.T, log ports.AuditLog) {
	_, err := log.Get(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "42", nf.ID)
}

func testConcurrent(t *testing.T, log ports.AuditLog) {
	ctx := context.Background()
	const n = 40
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := log.Append(ctx, entry(fmt.Sprintf("msg %d", i), nil, domain.RiskLow))
			assert.NoError(t, err)
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	all, err := log.List(ctx, domain.LogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, n)
}
