package sqlzset

import (
	"context"
	"fmt"

	sqldrv "github.com/syssam/stepping/dialect/sql"
)

// Migrate applies the CREATE TABLE/INDEX DDL for the frontier table and
// every given Table, idempotently (every statement is IF NOT EXISTS). Used
// by deployment tooling that wants to provision a database ahead of time,
// separately from opening a live Store (which migrates its own tables
// lazily on Allocate).
//
// DDL text is generated directly by Table.CreateDDL rather than through
// ariga.io/atlas's own diff-and-apply migration engine (atlas.Atlas,
// schema.Differ) — that wrapper is part of the teacher's domain (it names
// the dependency in go.mod and references it from generated entity code)
// but no concrete implementation of the wrapper itself was ever present in
// the retrieved reference material, so there is nothing to adapt it from.
// Table.AtlasTable still exercises the dependency by exposing the same
// schema as an in-memory atlas *schema.Table, for callers that want to run
// their own atlas-based diffing.
func Migrate(ctx context.Context, drv *sqldrv.Driver, tables []*Table) error {
	dial := drv.Dialect()
	if err := drv.Exec(ctx, FrontierDDL(dial), []any{}, nil); err != nil {
		return fmt.Errorf("sqlzset: migrate: frontier table: %w", err)
	}
	for _, tbl := range tables {
		for _, stmt := range tbl.CreateDDL(dial) {
			if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
				return fmt.Errorf("sqlzset: migrate: %s: %w", tbl.Name, err)
			}
		}
	}
	return nil
}
