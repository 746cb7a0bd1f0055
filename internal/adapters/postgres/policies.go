package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"policyguard/internal/domain"
)

// PolicyRepository stores policy document metadata in policy_documents.
type PolicyRepository struct {
	db *DB
}

func (db *DB) Policies() *PolicyRepository { return &PolicyRepository{db: db} }

const policyColumns = `id::text, title, storage_ref, policy_type, department, version, created_at, supersedes::text`

func (r *PolicyRepository) Create(ctx context.Context, d domain.PolicyDocument) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO policy_documents (id, title, storage_ref, policy_type, department, version, created_at, supersedes)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::uuid)
	`, d.ID, d.Title, d.StorageRef, string(d.PolicyType), d.Department, d.Version, d.CreatedAt, d.Supersedes)
	if err != nil {
		return fmt.Errorf("insert policy document: %w", err)
	}
	return nil
}

func (r *PolicyRepository) List(ctx context.Context, f domain.PolicyFilter) ([]domain.PolicyDocument, error) {
	var (
		where []string
		args  []any
	)
	if f.PolicyType != nil {
		args = append(args, string(*f.PolicyType))
		where = append(where, fmt.Sprintf("policy_type = $%d", len(args)))
	}
	if f.Department != nil {
		args = append(args, *f.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	q := `SELECT ` + policyColumns + ` FROM policy_documents`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list policy documents: %w", err)
	}
	defer rows.Close()
	out := make([]domain.PolicyDocument, 0)
	for rows.Next() {
		d, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PolicyRepository) Get(ctx context.Context, id string) (domain.PolicyDocument, error) {
	// A malformed uuid can never match; report it the same way as a miss.
	row := r.db.Pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policy_documents WHERE id::text = $1`, id)
	d, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PolicyDocument{}, &domain.NotFoundError{Kind: "policy_document", ID: id}
	}
	return d, err
}

func scanPolicy(row pgx.Row) (domain.PolicyDocument, error) {
	var (
		d  domain.PolicyDocument
		pt string
	)
	if err := row.Scan(&d.ID, &d.Title, &d.StorageRef, &pt, &d.Department, &d.Version, &d.CreatedAt, &d.Supersedes); err != nil {
		return d, err
	}
	parsed, err := domain.ParsePolicyType(pt)
	if err != nil {
		return d, fmt.Errorf("policy document %s: %w", d.ID, err)
	}
	d.PolicyType = parsed
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}
