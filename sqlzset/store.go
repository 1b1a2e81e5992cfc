package sqlzset

import (
	"github.com/syssam/stepping"
	sqldrv "github.com/syssam/stepping/dialect/sql"

	_ "github.com/go-sql-driver/mysql" // mysql driver registration
	_ "github.com/lib/pq"              // postgres driver registration
	_ "modernc.org/sqlite"             // sqlite driver registration, cgo-free
)

// OpenSQLite opens a durable Store against a SQLite database file (or
// ":memory:"), using modernc.org/sqlite's cgo-free driver. cfg is optional
// (spec §10.3).
func OpenSQLite(source string, schema SchemaFunc, cfg ...stepping.Config) (*Store, error) {
	drv, err := sqldrv.Open("sqlite", source)
	if err != nil {
		return nil, err
	}
	return NewStore(drv, schema, cfg...), nil
}

// OpenPostgres opens a durable Store against a PostgreSQL database, using
// lib/pq. cfg is optional (spec §10.3).
func OpenPostgres(dsn string, schema SchemaFunc, cfg ...stepping.Config) (*Store, error) {
	drv, err := sqldrv.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(drv, schema, cfg...), nil
}

// OpenMySQL opens a durable Store against a MySQL database, using
// go-sql-driver/mysql. cfg is optional (spec §10.3).
func OpenMySQL(dsn string, schema SchemaFunc, cfg ...stepping.Config) (*Store, error) {
	drv, err := sqldrv.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(drv, schema, cfg...), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.drv.Close() }
