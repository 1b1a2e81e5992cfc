package dialect

import "context"

// Dialect string constants (see doc.go's "Dialect Constants" section).
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ExecQuerier wraps the two database/sql operations every backend needs.
type ExecQuerier interface {
	// Exec executes a query that doesn't return rows, consuming args and
	// storing its result in v.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT,
	// scanning the result into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface every dialect backend implements: a handle that
// can execute statements, start transactions, and report its own dialect.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the current dialect (Postgres, MySQL or SQLite).
	Dialect() string
}

// Tx is a Driver that can be committed or rolled back.
type Tx interface {
	Driver
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error
}
