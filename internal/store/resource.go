package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/life-master/apiserver/internal/pagination"
	"github.com/life-master/apiserver/types"
)

// Scanner is the subset of sql.Row/sql.Rows needed by row mappers.
type Scanner interface {
	Scan(dest ...any) error
}

// Descriptor parameterizes the generic resource repository for one kind.
// Scan and Args must agree with Columns on order; the full row layout is
// always (id, user_id, Columns..., created_at, updated_at).
type Descriptor[T types.Entity] struct {
	Table   string
	Columns []string
	Scan    func(Scanner) (T, error)
	Args    func(T) []any
}

// ResourceRepository is the single repository implementation shared by all
// four resource kinds. Every query carries the owner predicate; a row owned
// by another user behaves exactly like a missing row.
type ResourceRepository[T types.Entity] struct {
	db   *sql.DB
	desc Descriptor[T]
}

func NewResourceRepository[T types.Entity](db *sql.DB, desc Descriptor[T]) *ResourceRepository[T] {
	return &ResourceRepository[T]{db: db, desc: desc}
}

func (r *ResourceRepository[T]) List(ctx context.Context, ownerID int64, pr types.PageRequest) (types.Page[T], error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE user_id = $1`, r.desc.Table)
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return types.Page[T]{}, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1 ORDER BY %s OFFSET $2 LIMIT $3`,
		r.selectColumns(""), r.desc.Table, orderClause(pr, ""),
	)
	rows, err := r.db.QueryContext(ctx, listQuery, ownerID, pr.Offset(), pr.Size)
	if err != nil {
		return types.Page[T]{}, err
	}
	defer rows.Close()

	items, err := r.collect(rows, pr.Size)
	if err != nil {
		return types.Page[T]{}, err
	}
	return pagination.NewPage(items, pr, total), nil
}

// ListRelated pages through the rows of this repository's kind associated
// with a parent resource via the given join table. Related rows are still
// owner-filtered; the caller is responsible for authorizing the parent.
func (r *ResourceRepository[T]) ListRelated(ctx context.Context, ownerID int64, rel types.Relation, parentID int64, pr types.PageRequest) (types.Page[T], error) {
	countQuery := fmt.Sprintf(
		`SELECT COUNT(1)
		FROM %s r
		JOIN %s j ON j.%s = r.id
		WHERE j.%s = $1 AND r.user_id = $2`,
		r.desc.Table, rel.JoinTable, rel.ChildColumn, rel.ParentColumn,
	)
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, parentID, ownerID).Scan(&total); err != nil {
		return types.Page[T]{}, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s
		FROM %s r
		JOIN %s j ON j.%s = r.id
		WHERE j.%s = $1 AND r.user_id = $2
		ORDER BY %s
		OFFSET $3 LIMIT $4`,
		r.selectColumns("r"), r.desc.Table, rel.JoinTable, rel.ChildColumn, rel.ParentColumn, orderClause(pr, "r"),
	)
	rows, err := r.db.QueryContext(ctx, listQuery, parentID, ownerID, pr.Offset(), pr.Size)
	if err != nil {
		return types.Page[T]{}, err
	}
	defer rows.Close()

	items, err := r.collect(rows, pr.Size)
	if err != nil {
		return types.Page[T]{}, err
	}
	return pagination.NewPage(items, pr, total), nil
}

func (r *ResourceRepository[T]) Get(ctx context.Context, ownerID, id int64) (T, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1 AND user_id = $2`,
		r.selectColumns(""), r.desc.Table,
	)
	item, err := r.desc.Scan(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return item, nil
}

func (r *ResourceRepository[T]) Create(ctx context.Context, item T) (T, error) {
	placeholders := make([]string, 0, len(r.desc.Columns)+3)
	for i := 0; i < len(r.desc.Columns)+3; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (user_id, %s, created_at, updated_at) VALUES (%s) RETURNING %s`,
		r.desc.Table,
		strings.Join(r.desc.Columns, ", "),
		strings.Join(placeholders, ", "),
		r.selectColumns(""),
	)

	args := make([]any, 0, len(r.desc.Columns)+3)
	args = append(args, item.OwnerID())
	args = append(args, r.desc.Args(item)...)
	now := time.Now()
	args = append(args, now, now)

	created, err := r.desc.Scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}

func (r *ResourceRepository[T]) Update(ctx context.Context, item T) (T, error) {
	assignments := make([]string, 0, len(r.desc.Columns)+1)
	for i, col := range r.desc.Columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, i+1))
	}
	n := len(r.desc.Columns)
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", n+1))

	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		r.desc.Table,
		strings.Join(assignments, ", "),
		n+2, n+3,
		r.selectColumns(""),
	)

	args := append(r.desc.Args(item), time.Now(), item.EntityID(), item.OwnerID())

	updated, err := r.desc.Scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return updated, nil
}

func (r *ResourceRepository[T]) Delete(ctx context.Context, ownerID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.desc.Table)
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResourceRepository[T]) collect(rows *sql.Rows, capacity int) ([]T, error) {
	items := make([]T, 0, capacity)
	for rows.Next() {
		item, err := r.desc.Scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ResourceRepository[T]) selectColumns(alias string) string {
	cols := make([]string, 0, len(r.desc.Columns)+4)
	cols = append(cols, "id", "user_id")
	cols = append(cols, r.desc.Columns...)
	cols = append(cols, "created_at", "updated_at")
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

// orderClause renders the ORDER BY expression. pr.OrderBy is always a
// column resolved through the pagination whitelist, never raw user input.
// The id tiebreaker keeps equal-key ordering deterministic across calls.
func orderClause(pr types.PageRequest, alias string) string {
	dir := "ASC"
	if pr.Desc {
		dir = "DESC"
	}
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf("%s%s %s, %sid ASC", prefix, pr.OrderBy, dir, prefix)
}
