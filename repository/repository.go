// Package repository is the data access layer.
//
// Repositories never hold a database handle. Each call asks a ConnSource
// for the client of the tenant bound to the request context, bounds the
// statement with the client's query timeout, and joins the transaction
// started by Transactor.InTx when there is one. SQL is built with the
// client's squirrel builder so the same code serves Postgres and SQLite.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akinalp/tenantgate/database"
)

// ConnSource resolves the database client for the tenant in ctx.
type ConnSource interface {
	Conn(ctx context.Context) (*database.DB, error)
}

// Transactor runs a unit of work atomically against the request's tenant.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type transactor struct {
	conns ConnSource
}

// NewTransactor returns a Transactor backed by conns.
func NewTransactor(conns ConnSource) Transactor {
	return &transactor{conns: conns}
}

func (t *transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	db, err := t.conns.Conn(ctx)
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, fn)
}

// withConn resolves the tenant client and runs fn under its query timeout.
func withConn(ctx context.Context, conns ConnSource, fn func(ctx context.Context, db *database.DB, q database.TxQuerier) error) error {
	db, err := conns.Conn(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()
	return fn(ctx, db, db.Querier(ctx))
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
