package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/planvault/planvault/internal/domain"
)

// Postgres error codes the gateway classifies.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// querier abstracts pgx.Tx and *pgxpool.Pool for helpers usable in both.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify maps low-level pgx errors onto the domain sentinels so raw
// driver detail never leaves the gateway unclassified. Unrecognized errors
// pass through unchanged (the dispatcher treats them as internal).
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrDuplicate
		case pgForeignKeyViolation:
			// The referenced record does not exist.
			return domain.ErrNotFound
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ErrUnavailable
	}
	return err
}

// wrapErr classifies err and prefixes it with a formatted message.
func wrapErr(err error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, classify(err))...)
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Keeps JSON serialization producing [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// isUUID reports whether ref parses as an RFC 4122 UUID, used to decide
// whether a tag reference is an identifier or a name.
func isUUID(ref string) bool {
	_, err := uuid.Parse(ref)
	return err == nil
}
