package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFunc is the shape services depend on to wrap multi-write operations.
// Production wiring closes over WithTx and a pool; tests pass a function
// that just invokes fn.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// txBeginner is satisfied by *pgxpool.Pool and *pgxpool.Conn.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction and stores the transaction in the
// context so that repository calls made by fn join it. Nested calls reuse
// the already-open transaction. The transaction begins on the request's
// schema-scoped connection when one is present, so the tenant search_path
// carries over.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(TxKey).(pgx.Tx); ok && tx != nil {
		return fn(ctx)
	}

	var beginner txBeginner = pool
	if conn, ok := ctx.Value(ConnKey).(*pgxpool.Conn); ok && conn != nil {
		beginner = conn
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
