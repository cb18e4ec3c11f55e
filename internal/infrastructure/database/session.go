package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type contextKey string

const (
	sessionKey contextKey = "db_session"
	txKey      contextKey = "db_tx"
)

// Session acquires one connection from the pool and returns a context that
// carries it. Repository calls made with that context run on the connection.
// The caller must invoke release on every path.
func (db *DB) Session(ctx context.Context) (context.Context, func() error, error) {
	conn, err := db.DB.Connx(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return context.WithValue(ctx, sessionKey, conn), conn.Close, nil
}

// Executor returns the innermost handle bound to ctx: the current
// transaction, else the request session, else the pool.
func (db *DB) Executor(ctx context.Context) Queryer {
	if tx, ok := ctx.Value(txKey).(*sqlx.Tx); ok {
		return tx
	}
	if conn, ok := ctx.Value(sessionKey).(*sqlx.Conn); ok {
		return conn
	}
	return db.DB
}

// WithTransaction executes fn within a transaction opened on the request
// session when there is one. A transaction already present in ctx is joined.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	var (
		tx  *sqlx.Tx
		err error
	)
	if conn, ok := ctx.Value(sessionKey).(*sqlx.Conn); ok {
		tx, err = conn.BeginTxx(ctx, nil)
	} else {
		tx, err = db.DB.BeginTxx(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
