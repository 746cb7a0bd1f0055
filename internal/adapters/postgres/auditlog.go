package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"policyguard/internal/domain"
)

// AuditLog stores checks in compliance_checks. Ids come from an identity
// column, so they are unique and increase in insertion order; a trigger
// rejects UPDATE and DELETE.
type AuditLog struct {
	db *DB
}

func (db *DB) AuditLog() *AuditLog { return &AuditLog{db: db} }

const logColumns = `id, created_at, text, department, policy_type, overall_risk, issues, suggested_text`

func (l *AuditLog) Append(ctx context.Context, e domain.LogEntry) (int64, error) {
	issues, err := json.Marshal(nonNilIssues(e.Issues))
	if err != nil {
		return 0, fmt.Errorf("encode issues: %w", err)
	}
	var policyType *string
	if e.PolicyType != nil {
		s := string(*e.PolicyType)
		policyType = &s
	}
	var id int64
	err = l.db.Pool.QueryRow(ctx, `
		INSERT INTO compliance_checks (created_at, text, department, policy_type, overall_risk, issues, suggested_text)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		RETURNING id
	`, e.CreatedAt, e.Text, e.Department, policyType, e.OverallRisk.String(), string(issues), e.SuggestedText).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert compliance check: %w", err)
	}
	return id, nil
}

func (l *AuditLog) List(ctx context.Context, f domain.LogFilter) ([]domain.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Department != nil {
		args = append(args, *f.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if f.Risk != nil {
		args = append(args, f.Risk.String())
		where = append(where, fmt.Sprintf("overall_risk = $%d", len(args)))
	}
	q := `SELECT ` + logColumns + ` FROM compliance_checks`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := l.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list compliance checks: %w", err)
	}
	defer rows.Close()
	out := make([]domain.LogEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *AuditLog) Get(ctx context.Context, id int64) (domain.LogEntry, error) {
	row := l.db.Pool.QueryRow(ctx, `SELECT `+logColumns+` FROM compliance_checks WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LogEntry{}, &domain.NotFoundError{Kind: "log_entry", ID: strconv.FormatInt(id, 10)}
	}
	return e, err
}

func (l *AuditLog) Ping(ctx context.Context) error { return l.db.Ping(ctx) }

func scanEntry(row pgx.Row) (domain.LogEntry, error) {
	var (
		e          domain.LogEntry
		policyType *string
		risk       string
		issues     []byte
	)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.Text, &e.Department, &policyType, &risk, &issues, &e.SuggestedText); err != nil {
		return e, err
	}
	if policyType != nil {
		pt, err := domain.ParsePolicyType(*policyType)
		if err != nil {
			return e, fmt.Errorf("compliance check %d: %w", e.ID, err)
		}
		e.PolicyType = &pt
	}
	lvl, err := domain.ParseRiskLevel(risk)
	if err != nil {
		return e, fmt.Errorf("compliance check %d: %w", e.ID, err)
	}
	e.OverallRisk = lvl
	if err := json.Unmarshal(issues, &e.Issues); err != nil {
		return e, fmt.Errorf("decode issues for compliance check %d: %w", e.ID, err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func nonNilIssues(in []domain.ComplianceIssue) []domain.ComplianceIssue {
	if in == nil {
		return []domain.ComplianceIssue{}
	}
	return in
}
