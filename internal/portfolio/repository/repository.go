// Package repository stores portfolio content in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"portfolio-admin/internal/db"
)

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("not found")

// Counts is the total and visible row count of one table.
type Counts struct {
	Total   int64 `json:"total"`
	Visible int64 `json:"visible"`
}

// Table describes how one entity type maps onto its table.
// Writable and the slice returned by Values must line up.
type Table[T any] struct {
	Name     string
	OrderBy  string
	Columns  []string // every column, in struct order
	Writable []string
	Values   func(*T) []any
	// Featured enables ListFeatured and ToggleFeatured.
	Featured bool
	// Key is a unique natural-key column. It enables GetByKey and UpsertByKey.
	Key string
}

// Repository is the CRUD surface for one Table.
type Repository[T any] struct {
	db    db.Querier
	table Table[T]

	selectList string
	listAll    string
	listPublic string
	featured   string
	get        string
	insert     string
	update     string
	del        string
	toggle     string
	toggleFeat string
	count      string
	getByKey   string
	upsert     string
}

// New returns a Repository for table backed by q.
func New[T any](q db.Querier, table Table[T]) *Repository[T] {
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		if c == "id" {
			c = "id::text AS id"
		}
		cols[i] = c
	}
	sel := strings.Join(cols, ", ")
	r := &Repository[T]{db: q, table: table, selectList: sel}

	r.listAll = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", sel, table.Name, table.OrderBy)
	r.listPublic = fmt.Sprintf("SELECT %s FROM %s WHERE is_visible ORDER BY %s", sel, table.Name, table.OrderBy)
	r.featured = fmt.Sprintf("SELECT %s FROM %s WHERE is_visible AND is_featured ORDER BY %s LIMIT $1", sel, table.Name, table.OrderBy)
	r.get = fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", sel, table.Name)

	placeholders := make([]string, len(table.Writable))
	sets := make([]string, len(table.Writable))
	for i, c := range table.Writable {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		sets[i] = fmt.Sprintf("%s = $%d", c, i+2)
	}
	r.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table.Name, strings.Join(table.Writable, ", "), strings.Join(placeholders, ", "), sel)
	r.update = fmt.Sprintf("UPDATE %s SET %s, updated_at = now() WHERE id = $1 RETURNING %s",
		table.Name, strings.Join(sets, ", "), sel)
	r.del = fmt.Sprintf("DELETE FROM %s WHERE id = $1", table.Name)
	r.toggle = fmt.Sprintf("UPDATE %s SET is_visible = NOT is_visible, updated_at = now() WHERE id = $1 RETURNING %s", table.Name, sel)
	r.toggleFeat = fmt.Sprintf("UPDATE %s SET is_featured = NOT is_featured, updated_at = now() WHERE id = $1 RETURNING %s", table.Name, sel)
	r.count = fmt.Sprintf("SELECT count(*), count(*) FILTER (WHERE is_visible) FROM %s", table.Name)

	if table.Key != "" {
		r.getByKey = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", sel, table.Name, table.Key)
		excluded := make([]string, 0, len(table.Writable))
		for _, c := range table.Writable {
			if c != table.Key {
				excluded = append(excluded, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
			}
		}
		r.upsert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s, updated_at = now() RETURNING %s",
			table.Name, strings.Join(table.Writable, ", "), strings.Join(placeholders, ", "), table.Key,
			strings.Join(excluded, ", "), sel)
	}
	return r
}

// Name returns the table name.
func (r *Repository[T]) Name() string { return r.table.Name }

// List returns every row, or only visible rows when visibleOnly is set.
func (r *Repository[T]) List(ctx context.Context, visibleOnly bool) ([]T, error) {
	q := r.listAll
	if visibleOnly {
		q = r.listPublic
	}
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// ListFeatured returns up to limit visible featured rows.
func (r *Repository[T]) ListFeatured(ctx context.Context, limit int) ([]T, error) {
	if !r.table.Featured {
		return nil, fmt.Errorf("%s: featured is not supported", r.table.Name)
	}
	rows, err := r.db.Query(ctx, r.featured, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// Get returns the row with id, or ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	return r.one(ctx, r.get, id)
}

// Create inserts v and returns the stored row.
func (r *Repository[T]) Create(ctx context.Context, v *T) (*T, error) {
	return r.one(ctx, r.insert, r.table.Values(v)...)
}

// Update overwrites the writable columns of row id with v.
func (r *Repository[T]) Update(ctx context.Context, id string, v *T) (*T, error) {
	args := append([]any{id}, r.table.Values(v)...)
	return r.one(ctx, r.update, args...)
}

// Delete removes row id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, r.del, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleVisibility flips is_visible on row id.
func (r *Repository[T]) ToggleVisibility(ctx context.Context, id string) (*T, error) {
	return r.one(ctx, r.toggle, id)
}

// ToggleFeatured flips is_featured on row id.
func (r *Repository[T]) ToggleFeatured(ctx context.Context, id string) (*T, error) {
	if !r.table.Featured {
		return nil, fmt.Errorf("%s: featured is not supported", r.table.Name)
	}
	return r.one(ctx, r.toggleFeat, id)
}

// GetByKey returns the row whose Key column equals key, or ErrNotFound.
func (r *Repository[T]) GetByKey(ctx context.Context, key string) (*T, error) {
	if r.table.Key == "" {
		return nil, fmt.Errorf("%s: no natural key", r.table.Name)
	}
	return r.one(ctx, r.getByKey, key)
}

// UpsertByKey inserts v, or overwrites the row that already holds its key.
func (r *Repository[T]) UpsertByKey(ctx context.Context, v *T) (*T, error) {
	if r.table.Key == "" {
		return nil, fmt.Errorf("%s: no natural key", r.table.Name)
	}
	return r.one(ctx, r.upsert, r.table.Values(v)...)
}

// Count returns total and visible row counts.
func (r *Repository[T]) Count(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.db.QueryRow(ctx, r.count).Scan(&c.Total, &c.Visible)
	return c, err
}

func (r *Repository[T]) one(ctx context.Context, sql string, args ...any) (*T, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
