// Package sqlite implements the audit log on an embedded SQLite database,
// for single-node deployments that need history to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"policyguard/internal/domain"
)

// Config configures the SQLite audit log.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// AuditLog is an append-only audit log on SQLite. AUTOINCREMENT guarantees
// ids are never reused, even across restarts.
type AuditLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at cfg.Path and applies the schema.
func Open(ctx context.Context, cfg Config) (*AuditLog, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One connection serializes writers, which keeps id assignment and
	// commit order identical.
	db.SetMaxOpenConns(1)

	l := &AuditLog{db: db, logger: slog.Default().With("component", "auditlog.sqlite")}
	if err := l.initialize(ctx, cfg); err != nil {
		db.Close()
		return nil, err
	}
	l.logger.Info("sqlite audit log ready", "path", cfg.Path)
	return l, nil
}

func (l *AuditLog) initialize(ctx context.Context, cfg Config) error {
	if _, err := l.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("sqlite busy_timeout: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("sqlite journal_mode: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite create schema: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, insertSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("sqlite schema version: %w", err)
	}
	var version int
	if err := l.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("sqlite schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("sqlite schema version mismatch: expected %d, got %d", schemaVersion, version)
	}
	return nil
}

func (l *AuditLog) Append(ctx context.Context, e domain.LogEntry) (int64, error) {
	issues := e.Issues
	if issues == nil {
		issues = []domain.ComplianceIssue{}
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return 0, fmt.Errorf("encode issues: %w", err)
	}
	var policyType any
	if e.PolicyType != nil {
		policyType = string(*e.PolicyType)
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO compliance_checks (created_at, text, department, policy_type, overall_risk, issues, suggested_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Text, nullable(e.Department), policyType,
		e.OverallRisk.String(), string(raw), nullable(e.SuggestedText))
	if err != nil {
		return 0, fmt.Errorf("insert compliance check: %w", err)
	}
	return res.LastInsertId()
}

const logColumns = `id, created_at, text, department, policy_type, overall_risk, issues, suggested_text`

func (l *AuditLog) List(ctx context.Context, f domain.LogFilter) ([]domain.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Department != nil {
		where = append(where, "department = ?")
		args = append(args, *f.Department)
	}
	if f.Risk != nil {
		where = append(where, "overall_risk = ?")
		args = append(args, f.Risk.String())
	}
	q := `SELECT ` + logColumns + ` FROM compliance_checks`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
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
	e, err := scanEntry(l.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM compliance_checks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LogEntry{}, &domain.NotFoundError{Kind: "log_entry", ID: strconv.FormatInt(id, 10)}
	}
	return e, err
}

func (l *AuditLog) Ping(ctx context.Context) error { return l.db.PingContext(ctx) }

func (l *AuditLog) Close() error { return l.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.LogEntry, error) {
	var (
		e                     domain.LogEntry
		created, risk, issues string
		department, suggested sql.NullString
		policyType            sql.NullString
	)
	if err := row.Scan(&e.ID, &created, &e.Text, &department, &policyType, &risk, &issues, &suggested); err != nil {
		return e, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return e, fmt.Errorf("compliance check %d created_at: %w", e.ID, err)
	}
	e.CreatedAt = ts
	if department.Valid {
		e.Department = &department.String
	}
	if suggested.Valid {
		e.SuggestedText = &suggested.String
	}
	if policyType.Valid {
		pt, err := domain.ParsePolicyType(policyType.String)
		if err != nil {
			return e, fmt.Errorf("compliance check %d: %w", e.ID, err)
		}
		e.PolicyType = &pt
	}
	if e.OverallRisk, err = domain.ParseRiskLevel(risk); err != nil {
		return e, fmt.Errorf("compliance check %d: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(issues), &e.Issues); err != nil {
		return e, fmt.Errorf("decode issues for compliance check %d: %w", e.ID, err)
	}
	return e, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
