// Package repository implements the application ports on sqlite.
package repository

import (
	"context"
	"database/sql"

	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the open transaction when one is carried by the
// context, the plain connection otherwise.
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return db
}
