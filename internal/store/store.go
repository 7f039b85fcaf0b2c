package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx, so every store function
// can run on its own or as part of a larger transaction.
type Queryer interface {
	sqlx.ExtContext
}

// Constraint errors returned by inserts.
var (
	ErrDuplicate        = errors.New("duplicate entry")
	ErrInvalidReference = errors.New("referenced record not found")
)

func get(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func list(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q Queryer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func insertReturningID(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		return 0, err
	}
	return id, nil
}

// refPredicate matches a row by its human-facing code column, falling back to
// the surrogate id only when no row carries ref as its code. alias names the
// table in the outer query.
func refPredicate(table, alias, codeColumn, ref string) (string, []any) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return fmt.Sprintf("%s.%s = ?", alias, codeColumn), []any{ref}
	}
	return fmt.Sprintf(
		"(%[2]s.%[3]s = ? OR (%[2]s.id = ? AND NOT EXISTS (SELECT 1 FROM %[1]s ref_code WHERE ref_code.%[3]s = ?)))",
		table, alias, codeColumn,
	), []any{ref, id, ref}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}
