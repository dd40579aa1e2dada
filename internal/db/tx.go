package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Runner executes a function inside a single database transaction. State
// transitions that touch several tables go through this so a partial failure
// never leaves the record set inconsistent.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxRunner is the sqlx implementation of Runner.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner constructs a TxRunner.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx begins a transaction, stores it in the context for repositories to
// pick up, and commits or rolls back depending on fn's result. Nested calls
// join the transaction already in the context.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Querier returns the transaction stored in ctx, or fallback when the call is
// not transactional.
func Querier(ctx context.Context, fallback sqlx.ExtContext) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return fallback
}
