package policies

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"policyguard/internal/domain"
	"policyguard/internal/ports"
)

// Service registers and lists policy document metadata. The rule engine does
// not read policy contents; documents are informational.
type Service struct {
	repo ports.PolicyRepository
	now  func() time.Time
}

func New(repo ports.PolicyRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Register(ctx context.Context, reg domain.PolicyRegistration) (domain.PolicyDocument, error) {
	doc, err := s.build(reg)
	if err != nil {
		return domain.PolicyDocument{}, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return domain.PolicyDocument{}, err
	}
	return doc, nil
}

func (s *Service) build(reg domain.PolicyRegistration) (domain.PolicyDocument, error) {
	title := strings.TrimSpace(reg.Title)
	if title == "" {
		return domain.PolicyDocument{}, &domain.ValidationError{Field: "title", Reason: "title must not be empty"}
	}
	ref := strings.TrimSpace(reg.StorageRef)
	if ref == "" {
		return domain.PolicyDocument{}, &domain.ValidationError{Field: "storage_ref", Reason: "storage_ref must not be empty"}
	}
	pt, err := domain.ParsePolicyType(strings.TrimSpace(reg.PolicyType))
	if err != nil {
		return domain.PolicyDocument{}, err
	}
	doc := domain.PolicyDocument{
		ID:         uuid.NewString(),
		Title:      title,
		StorageRef: ref,
		PolicyType: pt,
		CreatedAt:  s.now().UTC(),
	}
	if reg.Department != nil {
		doc.Department = domain.StringPtr(*reg.Department)
	}
	if reg.Version != nil {
		doc.Version = domain.StringPtr(*reg.Version)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, filter domain.PolicyFilter) ([]domain.PolicyDocument, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (domain.PolicyDocument, error) {
	return s.repo.Get(ctx, id)
}

// Supersede registers a new version of an existing document. The original is
// left untouched; the new document records which id it replaces.
func (s *Service) Supersede(ctx context.Context, id string, version, storageRef string) (domain.PolicyDocument, error) {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.PolicyDocument{}, err
	}
	if domain.StringPtr(version) == nil {
		return domain.PolicyDocument{}, &domain.ValidationError{Field: "version", Reason: "version must not be empty"}
	}
	if prev.Version != nil && *prev.Version == strings.TrimSpace(version) {
		return domain.PolicyDocument{}, &domain.ValidationError{Field: "version", Reason: "version must differ from the superseded document"}
	}
	doc, err := s.build(domain.PolicyRegistration{
		Title:      prev.Title,
		StorageRef: storageRef,
		PolicyType: string(prev.PolicyType),
		Department: prev.Department,
		Version:    &version,
	})
	if err != nil {
		return domain.PolicyDocument{}, err
	}
	doc.Supersedes = &prev.ID
	if err := s.repo.Create(ctx, doc); err != nil {
		return domain.PolicyDocument{}, err
	}
	return doc, nil
}
