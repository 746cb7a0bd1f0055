// Package memory provides in-process implementations of the repository
// ports. They back tests and single-process deployments that do not need
// durable history.
package memory

import (
	"context"
	"strconv"
	"sync"

	"policyguard/internal/domain"
)

// AuditLog is an append-only slice of entries guarded by a RWMutex. Entry i
// has id i+1, so ids are dense, strictly increasing and never reused.
type AuditLog struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
}

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (l *AuditLog) Append(_ context.Context, entry domain.LogEntry) (int64, error) {
	e := entry.Clone()
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
	return e.ID, nil
}

func (l *AuditLog) List(_ context.Context, filter domain.LogFilter) ([]domain.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.LogEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		if !filter.Matches(l.entries[i]) {
			continue
		}
		out = append(out, l.entries[i].Clone())
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (l *AuditLog) Get(_ context.Context, id int64) (domain.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 1 || id > int64(len(l.entries)) {
		return domain.LogEntry{}, &domain.NotFoundError{Kind: "log_entry", ID: strconv.FormatInt(id, 10)}
	}
	return l.entries[id-1].Clone(), nil
}

func (l *AuditLog) Ping(context.Context) error { return nil }
