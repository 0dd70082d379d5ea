// Transactions.
//
// RunInTx starts a transaction and hands fn a context that carries it.
// Repositories call Querier(ctx) for every statement, so any repository
// call made with that context joins the transaction without having to
// know about it:
//
//	err := db.RunInTx(ctx, func(ctx context.Context) error {
//		if err := users.UpdatePassword(ctx, id, hash); err != nil {
//			return err // rolled back
//		}
//		return sessions.DeleteByUserIDExcept(ctx, id, keep) // committed if nil
//	})
//
// The binding remembers which DB started it. A context carrying tenant A's
// transaction used against tenant B's client falls back to B's pool rather
// than running B's statement on A's connection.

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier is satisfied by both *sql.DB and *sql.Tx.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Querier returns the transaction bound to ctx by RunInTx for this
// database, or the plain connection pool.
func (db *DB) Querier(ctx context.Context) TxQuerier {
	if b, ok := ctx.Value(txKey{}).(txBinding); ok && b.db == db {
		return b.tx
	}
	return db.Conn
}

type txBinding struct {
	db *DB
	tx *sql.Tx
}

// RunInTx runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, txBinding{db: db, tx: tx}))
	})
}

// WithTx runs fn in a transaction: commit when fn returns nil, roll back on
// error or panic (the panic is re-raised).
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
