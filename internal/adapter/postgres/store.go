package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planvault/planvault/internal/domain"
)

// Store implements database.Store using PostgreSQL. Every method is one
// scoped unit of work against the bounded pool; multi-statement operations
// run inside withTx.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies the store can hand out a working connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping (%v): %w", err, domain.ErrUnavailable)
	}
	return nil
}

// withTx begins a transaction, runs fn, commits on nil and rolls back on
// error or panic. The connection is always released back to the pool. A
// failed acquire (pool exhausted, store down, context expired while
// waiting) surfaces as ErrUnavailable rather than an unbounded wait.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin (%v): %w", err, domain.ErrUnavailable)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}
