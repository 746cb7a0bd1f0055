package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"policyguard/internal/domain"
)

// PolicyRepository keeps policy documents in insertion order.
type PolicyRepository struct {
	mu   sync.RWMutex
	docs []domain.PolicyDocument
	byID map[string]int
}

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{byID: make(map[string]int)}
}

func (r *PolicyRepository) Create(_ context.Context, doc domain.PolicyDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[doc.ID]; dup {
		return fmt.Errorf("policy document %s already exists", doc.ID)
	}
	r.byID[doc.ID] = len(r.docs)
	r.docs = append(r.docs, doc)
	return nil
}

// List returns matching documents, newest first.
func (r *PolicyRepository) List(_ context.Context, filter domain.PolicyFilter) ([]domain.PolicyDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PolicyDocument, 0, len(r.docs))
	for i := len(r.docs) - 1; i >= 0; i-- {
		if filter.Matches(r.docs[i]) {
			out = append(out, r.docs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PolicyRepository) Get(_ context.Context, id string) (domain.PolicyDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return domain.PolicyDocument{}, &domain.NotFoundError{Kind: "policy_document", ID: id}
	}
	return r.docs[i], nil
}
