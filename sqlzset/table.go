// Package sqlzset implements the SQL-backed Z-set (spec §4.4/§6): a
// durable table per delay vertex, with typed index columns alongside the
// identity/data/count triple, buffered writes, and a last_update frontier
// column cross-process readers can poll. Grounded on
// original_source/src/stepping/zset/postgres.go and spec §6's schema
// description; SQL execution goes through dialect/sql's Driver (kept from
// the teacher) with hand-written SQL text, since dialect/sql has no query
// builder (see DESIGN.md).
package sqlzset

import (
	"fmt"
	"strings"

	atlasschema "ariga.io/atlas/sql/schema"

	"github.com/syssam/stepping/dialect"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
)

// Column names every delay-vertex table shares (spec §6).
const (
	ColumnID   = "id"   // value.Identity(v): raw bytes for atoms, MD5 for composites
	ColumnData = "data" // canonical encoding of v; omitted (NULL) for atoms per spec §9
	ColumnC    = "c"    // signed count
)

// FrontierTable is the sidecar table tracking each Z-set table's last
// committed step, polled by cross-process readers (spec §4.4).
const FrontierTable = "last_update"

// Table describes the persisted schema for one delay vertex's Z-set: the
// identity/data/count columns every table has, plus one column per
// declared index's key component (spec §6's `ixd__<index>__<field>`
// convention, from index.Descriptor.ColumnName).
type Table struct {
	Name    string
	Indexes []*index.Index
}

// NewTable names a delay vertex's table after its graph.Path, sanitized to
// a valid SQL identifier (dots become underscores).
func NewTable(vertexPath string, indexes []*index.Index) *Table {
	return &Table{Name: sanitizeName(vertexPath), Indexes: indexes}
}

func sanitizeName(path string) string {
	return "zset_" + strings.ReplaceAll(path, ".", "__")
}

// indexColumn is one generated key-component column.
type indexColumn struct {
	name string
	kind value.Kind
}

func (t *Table) indexColumns() []indexColumn {
	var cols []indexColumn
	for _, ix := range t.Indexes {
		d := ix.Descriptor()
		for i := range d.Fields {
			cols = append(cols, indexColumn{name: d.ColumnName(i), kind: d.KeyAtomKinds[i]})
		}
	}
	return cols
}

// sqlType maps a value.Kind to a dialect-portable atlas column type. Atlas
// ships these generic type structs specifically so callers don't need to
// hand-pick a dialect-specific type name; the concrete dialect driver
// renders each to its own DDL spelling.
func sqlType(k value.Kind) atlasschema.Type {
	switch k {
	case value.KindInt:
		return &atlasschema.IntegerType{T: "bigint"}
	case value.KindFloat:
		return &atlasschema.FloatType{T: "double"}
	case value.KindBool:
		return &atlasschema.BoolType{T: "boolean"}
	case value.KindString, value.KindUUID, value.KindEnum:
		return &atlasschema.StringType{T: "text"}
	case value.KindDate, value.KindTimestamp:
		return &atlasschema.TimeType{T: "timestamp"}
	default:
		return &atlasschema.BinaryType{T: "blob"}
	}
}

// AtlasTable renders t as an in-memory ariga.io/atlas schema description:
// the structured counterpart to CreateDDL's literal SQL text, usable by
// callers that want to inspect or diff the schema before applying it
// (SPEC_FULL.md §11.1's "expose the DDL as data" convenience).
func (t *Table) AtlasTable() *atlasschema.Table {
	tbl := atlasschema.NewTable(t.Name)
	id := atlasschema.NewColumn(ColumnID).SetType(&atlasschema.BinaryType{T: "blob"})
	data := atlasschema.NewColumn(ColumnData).SetType(&atlasschema.BinaryType{T: "blob"})
	data.Type.Null = true
	c := atlasschema.NewColumn(ColumnC).SetType(&atlasschema.IntegerType{T: "bigint"})
	tbl.AddColumns(id, data, c)
	tbl.SetPrimaryKey(atlasschema.NewPrimaryKey(id))

	for _, ic := range t.indexColumns() {
		col := atlasschema.NewColumn(ic.name).SetType(sqlType(ic.kind))
		col.Type.Null = true
		tbl.AddColumns(col)
	}
	for _, ix := range t.Indexes {
		d := ix.Descriptor()
		idx := atlasschema.NewIndex("ixd__" + d.Name)
		for i := range d.Fields {
			if col, ok := tbl.Column(d.ColumnName(i)); ok {
				idx.AddColumns(col)
			}
		}
		tbl.AddIndexes(idx)
	}
	return tbl
}

// CreateDDL renders the CREATE TABLE / CREATE INDEX statements for t under
// the given dialect.
func (t *Table) CreateDDL(dial string) []string {
	blob := blobType(dial)
	bigint := "BIGINT"

	cols := []string{
		fmt.Sprintf("%s %s PRIMARY KEY", quote(dial, ColumnID), blob),
		fmt.Sprintf("%s %s", quote(dial, ColumnData), blob),
		fmt.Sprintf("%s %s NOT NULL", quote(dial, ColumnC), bigint),
	}
	for _, ic := range t.indexColumns() {
		cols = append(cols, fmt.Sprintf("%s %s", quote(dial, ic.name), dialectType(dial, ic.kind)))
	}

	stmts := []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		quote(dial, t.Name), strings.Join(cols, ",\n\t"),
	)}
	for _, ix := range t.Indexes {
		d := ix.Descriptor()
		var idxCols []string
		for i := range d.Fields {
			col := quote(dial, d.ColumnName(i))
			if d.Directions[i] == index.Desc {
				col += " DESC"
			}
			idxCols = append(idxCols, col)
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quote(dial, "ixd__"+t.Name+"__"+d.Name), quote(dial, t.Name), strings.Join(idxCols, ", "),
		))
	}
	return stmts
}

func blobType(dial string) string {
	switch dial {
	case dialect.Postgres:
		return "BYTEA"
	case dialect.MySQL:
		return "VARBINARY(255)"
	default:
		return "BLOB"
	}
}

func dialectType(dial string, k value.Kind) string {
	switch k {
	case value.KindInt:
		return "BIGINT"
	case value.KindFloat:
		return "DOUBLE PRECISION"
	case value.KindBool:
		return "BOOLEAN"
	case value.KindString, value.KindUUID, value.KindEnum:
		return "TEXT"
	case value.KindDate, value.KindTimestamp:
		if dial == dialect.MySQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	default:
		return blobType(dial)
	}
}

func quote(dial, ident string) string {
	switch dial {
	case dialect.MySQL:
		return "`" + ident + "`"
	default:
		return `"` + ident + `"`
	}
}

// FrontierDDL renders the sidecar last_update table's CREATE TABLE
// statement (spec §4.4: "the store advances last_update.t for this table").
func FrontierDDL(dial string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s %s PRIMARY KEY,\n\t%s %s NOT NULL\n)",
		quote(dial, FrontierTable),
		quote(dial, "table_name"), textType(dial),
		quote(dial, "t"), "BIGINT",
	)
}

func textType(dial string) string {
	if dial == dialect.MySQL {
		return "VARCHAR(255)"
	}
	return "TEXT"
}
