// Package sql implements the dialect.Driver interface over database/sql for
// PostgreSQL, MySQL and SQLite.
//
// Open and OpenDB return a *Driver for one of the dialects named in package
// dialect; NewDriver wraps an existing Conn. Driver and Tx run statements
// through Exec and Query, which take the SQL text and its arguments as
// given. WithVar, VarFromContext and WithIntVar carry session variables on
// a context. NewStatsDriver and OpenWithStats wrap a driver to collect query
// statistics; NewDebugDriver wraps one to log every statement.
//
// The package has no query builder: there are no Selector, predicate, join,
// pagination or row-locking helpers, and callers write the SQL text
// themselves.
//
//	db, err := sql.Open(dialect.SQLite, ":memory:")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//	var rows sql.Rows
//	err = db.Query(ctx, "SELECT id FROM t WHERE c > ?", []any{0}, &rows)
package sql
