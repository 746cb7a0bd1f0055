package policies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/adapters/memory"
	"policyguard/internal/domain"
)

func newService() *Service {
	s := New(memory.NewPolicyRepository())
	s.now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func ptr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	s := newService()
	ctx := context.Background()

	doc, err := s.Register(ctx, domain.PolicyRegistration{
		Title:      "  Information Security Policy ",
		StorageRef: "policies/information_security_policy_security.pdf",
		PolicyType: "security",
		Department: ptr(" IT "),
		Version:    ptr(""),
	})
	require.NoError(t, err)
	_, err = uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Information Security Policy", doc.Title)
	assert.Equal(t, domain.PolicySecurity, doc.PolicyType)
	assert.Equal(t, "IT", *doc.Department)
	assert.Nil(t, doc.Version)

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		reg   domain.PolicyRegistration
		field string
	}{
		{"missing title", domain.PolicyRegistration{StorageRef: "x", PolicyType: "hr"}, "title"},
		{"missing ref", domain.PolicyRegistration{Title: "x", PolicyType: "hr"}, "storage_ref"},
		{"bad type", domain.PolicyRegistration{Title: "x", StorageRef: "x", PolicyType: "legal"}, "policy_type"},
	}
	s := newService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.reg)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	docs, err := s.List(context.Background(), domain.PolicyFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSupersede(t *testing.T) {
	s := newService()
	ctx := context.Background()
	orig, err := s.Register(ctx, domain.PolicyRegistration{
		Title: "HR Handbook", StorageRef: "v1.pdf", PolicyType: "hr", Department: ptr("HR"), Version: ptr("2025"),
	})
	require.NoError(t, err)

	next, err := s.Supersede(ctx, orig.ID, "2026", "v2.pdf")
	require.NoError(t, err)
	assert.NotEqual(t, orig.ID, next.ID)
	assert.Equal(t, orig.ID, *next.Supersedes)
	assert.Equal(t, "HR Handbook", next.Title)
	assert.Equal(t, domain.PolicyHR, next.PolicyType)
	assert.Equal(t, "HR", *next.Department)
	assert.Equal(t, "2026", *next.Version)

	unchanged, err := s.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, orig, unchanged)

	_, err = s.Supersede(ctx, orig.ID, "2025", "v3.pdf")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Supersede(ctx, orig.ID, " ", "v3.pdf")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Supersede(ctx, "missing", "2027", "v3.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	hr := domain.PolicyHR
	docs, err := s.List(ctx, domain.PolicyFilter{PolicyType: &hr})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
