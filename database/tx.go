package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods run against whichever the context carries.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Q returns the transaction carried by ctx, or fallback when there is none.
func Q(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return fallback
}

// TxRunner runs a function inside a single database transaction. The
// orchestrators use it as their unit of atomicity: any error rolls the
// whole transaction back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLTxRunner is the PostgreSQL TxRunner. Repositories sharing the same
// *sql.DB pick the open transaction up from the context.
type SQLTxRunner struct {
	DB *sql.DB
}

func (r *SQLTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Deferred so a panic inside fn still releases the connection.
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SerialTxRunner serializes the function calls without a real database
// transaction. It pairs with the in-memory repositories in tests: the
// mutex gives the same one-writer-at-a-time behavior the transactional
// overlap check relies on, but no rollback.
type SerialTxRunner struct {
	mu sync.Mutex
}

func (r *SerialTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
