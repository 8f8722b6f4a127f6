// Package postgres implements the storage interfaces on PostgreSQL using sqlx
// for row mapping and squirrel for statement building.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
)

const uniqueViolation = "23505"

// constraintFields maps unique constraint names to the API field they guard.
var constraintFields = map[string]string{
	"users_email_key":     "email",
	"users_user_name_key": "userName",
	"microsites_slug_key": "slug",
	"microsites_link_key": "link",
}

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.MicrositeStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return NewFromSQLX(sqlx.NewDb(db, "postgres"))
}

// NewFromSQLX creates a Store from an existing sqlx handle.
func NewFromSQLX(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) get(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return mapError(s.db.GetContext(ctx, dest, query, args...))
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return mapError(s.db.SelectContext(ctx, dest, query, args...))
}

func (s *Store) exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	return res, mapError(err)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.exec(ctx, s.sb.Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		field, ok := constraintFields[pqErr.Constraint]
		if !ok {
			field = strings.TrimSpace(pqErr.Column)
		}
		if field == "" {
			field = "unknown"
		}
		return storage.Conflict(field)
	}
	return err
}

func applyPage(q sq.SelectBuilder, page storage.Page) sq.SelectBuilder {
	if page.Limit > 0 {
		q = q.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		q = q.Offset(uint64(page.Offset))
	}
	return q
}

func searchExpr(term string, columns ...string) sq.Or {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr("lower("+col+") LIKE ?", pattern))
	}
	return or
}
