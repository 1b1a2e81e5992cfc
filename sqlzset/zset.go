package sqlzset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/dialect"
	sqldrv "github.com/syssam/stepping/dialect/sql"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// SchemaFunc resolves the value.Schema a delay vertex's elements decode
// against. The Store has no way to infer this from a *zset.ZSet alone —
// callers register one schema per vertex path up front (spec §4.1: "a
// schema is built once per type", here once per delay vertex's element
// type).
type SchemaFunc func(p graph.Path) *value.Schema

// Store is a graph.Store backed by a SQL database: every delay vertex gets
// its own durable table (table.go), written through a pending/current
// staging pair matching memstore's contract, with Inc committing the
// pending generation in one transaction and advancing the table's
// last_update frontier row (spec §4.4/§4.8).
type Store struct {
	drv     *sqldrv.Driver
	dialect string
	schema  SchemaFunc
	cfg     stepping.Config

	mu      sync.Mutex
	tables  map[string]*Table
	current map[string]*zset.ZSet
	pending map[string]*zset.ZSet
	dirty   map[string]bool
}

// NewStore opens a durable Store against drv, decoding each vertex's stored
// elements using schema. cfg is optional (spec §10.3); omitting it uses
// stepping.DefaultConfig's bounds.
func NewStore(drv *sqldrv.Driver, schema SchemaFunc, cfg ...stepping.Config) *Store {
	c := stepping.DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0].WithDefaults()
	}
	return &Store{
		drv:     drv,
		dialect: drv.Dialect(),
		schema:  schema,
		cfg:     c,
		tables:  map[string]*Table{},
		current: map[string]*zset.ZSet{},
		pending: map[string]*zset.ZSet{},
		dirty:   map[string]bool{},
	}
}

// Allocate creates v's backing table (and the shared frontier table, once)
// if they don't already exist, then loads the current committed Z-set.
// Allocating a vertex this Store has already allocated returns at once and
// reloads nothing.
func (s *Store) Allocate(v *graph.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := context.Background()
	key := v.Path.String()
	if _, ok := s.tables[key]; ok {
		return nil
	}

	if err := s.drv.Exec(ctx, FrontierDDL(s.dialect), []any{}, nil); err != nil {
		return fmt.Errorf("sqlzset: allocate %s: frontier table: %w", key, err)
	}

	tbl := NewTable(key, v.Indexes)
	s.tables[key] = tbl
	for _, stmt := range tbl.CreateDDL(s.dialect) {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("sqlzset: allocate %s: %w", key, err)
		}
	}

	z, err := s.load(ctx, v.Path, tbl)
	if err != nil {
		return err
	}
	s.current[key] = z
	s.pending[key] = z
	return nil
}

// Get returns the Z-set snapshot cached at the last Allocate, Refresh, or
// Inc — it does not itself re-query SQL. The original's StorePostgres
// holds a live, lazy ZSetPostgres per vertex that queries on every read
// (original_source/src/stepping/zset/postgres.go's iter/get_by_key); this
// Store instead caches a RAM snapshot for O(1) reads within the process
// that owns it (see DESIGN.md). A reader in a different process must call
// Refresh after confirming a commit via WaitForFrontier/ReadFrontier to
// observe it — WaitForFrontier alone only confirms the frontier advanced,
// it does not refresh this cache.
func (s *Store) Get(p graph.Path) (*zset.ZSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.current[p.String()]
	if !ok {
		return nil, fmt.Errorf("sqlzset: vertex %q was never allocated", p)
	}
	return z, nil
}

// Refresh re-reads p's committed Z-set directly from SQL and replaces the
// cached snapshot Get serves, so a process that only ever reads (never
// calls Set/Inc itself) can observe another process's commits once it has
// confirmed them via WaitForFrontier. Leaves any of this process's own
// un-committed pending write (staged by Set, not yet Inc'd) untouched.
func (s *Store) Refresh(ctx context.Context, p graph.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.String()
	tbl, ok := s.tables[key]
	if !ok {
		return fmt.Errorf("sqlzset: vertex %q was never allocated", p)
	}
	z, err := s.load(ctx, p, tbl)
	if err != nil {
		return err
	}
	s.current[key] = z
	if !s.dirty[key] {
		s.pending[key] = z
	}
	return nil
}

// Set stages z as p's pending generation, applied on the next Inc.
func (s *Store) Set(p graph.Path, z *zset.ZSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.String()
	if _, ok := s.tables[key]; !ok {
		return fmt.Errorf("sqlzset: vertex %q was never allocated", p)
	}
	s.pending[key] = z
	s.dirty[key] = true
	return nil
}

// Inc commits every dirty vertex's pending generation in one transaction:
// rows for elements no longer present are deleted, rows for new or
// changed counts are upserted, and each table's last_update row advances
// (spec §4.8 step 6: "no output is user-visible before Inc completes").
func (s *Store) Inc() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("sqlzset: inc: begin: %w", err)
	}

	for key := range s.dirty {
		tbl := s.tables[key]
		if err := s.applyDelta(ctx, tx, tbl, s.current[key], s.pending[key]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlzset: inc: %s: %w", key, err)
		}
		if err := bumpFrontier(ctx, tx, s.dialect, tbl.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlzset: inc: %s: frontier: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlzset: inc: commit: %w", err)
	}

	for key := range s.dirty {
		s.current[key] = s.pending[key]
	}
	s.dirty = map[string]bool{}
	return nil
}

// applyDelta diffs oldZ/newZ by identity and writes the result in batches
// of at most s.cfg.SQLBatchSize rows per statement (spec §4.4's
// batch-of-1000 description; original_source/src/stepping/zset/postgres.go's
// `upsert` batches the same way via its own `batched(values, n=1000)`).
func (s *Store) applyDelta(ctx context.Context, tx dialect.ExecQuerier, tbl *Table, oldZ, newZ *zset.ZSet) error {
	oldEntries := map[string]zset.Entry{}
	if oldZ != nil {
		for _, e := range oldZ.Entries() {
			oldEntries[value.IdentityHex(e.V)] = zset.Entry{V: e.V, C: e.C}
		}
	}
	var upserts []zset.Entry
	for _, ve := range newZ.Entries() {
		e := zset.Entry{V: ve.V, C: ve.C}
		key := value.IdentityHex(e.V)
		if old, ok := oldEntries[key]; ok && old.C == e.C {
			delete(oldEntries, key)
			continue
		}
		upserts = append(upserts, e)
		delete(oldEntries, key)
	}
	deletes := make([]value.Value, 0, len(oldEntries))
	for _, e := range oldEntries {
		deletes = append(deletes, e.V)
	}

	batch := s.cfg.SQLBatchSize
	if batch <= 0 {
		batch = stepping.DefaultConfig().SQLBatchSize
	}
	for i := 0; i < len(upserts); i += batch {
		end := min(i+batch, len(upserts))
		if err := s.upsertBatch(ctx, tx, tbl, upserts[i:end]); err != nil {
			return err
		}
	}
	for i := 0; i < len(deletes); i += batch {
		end := min(i+batch, len(deletes))
		if err := s.deleteBatch(ctx, tx, tbl, deletes[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, tx dialect.ExecQuerier, tbl *Table, entries []zset.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	cols := []string{quote(s.dialect, ColumnID), quote(s.dialect, ColumnData), quote(s.dialect, ColumnC)}
	for _, ic := range tbl.indexColumns() {
		cols = append(cols, quote(s.dialect, ic.name))
	}

	args := make([]any, 0, len(entries)*len(cols))
	for _, e := range entries {
		id := value.Identity(e.V)
		var data any
		if e.V.IsAtom() {
			data = nil
		} else {
			enc, err := value.Encode(e.V)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			data = enc
		}
		args = append(args, id, data, e.C)
		for _, ic := range indexColumnValues(tbl, e.V) {
			args = append(args, ic.val)
		}
	}

	query := batchUpsertSQL(s.dialect, tbl.Name, cols, len(entries))
	return tx.Exec(ctx, query, args, nil)
}

func (s *Store) deleteBatch(ctx context.Context, tx dialect.ExecQuerier, tbl *Table, vs []value.Value) error {
	if len(vs) == 0 {
		return nil
	}
	placeholders := make([]string, len(vs))
	args := make([]any, len(vs))
	for i, v := range vs {
		placeholders[i] = "?"
		args[i] = value.Identity(v)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		quote(s.dialect, tbl.Name), quote(s.dialect, ColumnID), strings.Join(placeholders, ", "))
	return tx.Exec(ctx, rebind(s.dialect, query), args, nil)
}

type indexColumnValue struct {
	name string
	val  any
}

func indexColumnValues(tbl *Table, v value.Value) []indexColumnValue {
	var out []indexColumnValue
	for _, ix := range tbl.Indexes {
		d := ix.Descriptor()
		key := ix.KeyOf(v)
		if !d.IsComposite {
			out = append(out, indexColumnValue{name: d.ColumnName(0), val: scalarOf(key)})
			continue
		}
		items := key.Items()
		for i := range d.Fields {
			out = append(out, indexColumnValue{name: d.ColumnName(i), val: scalarOf(items[i])})
		}
	}
	return out
}

// scalarOf renders an atom as a database/sql-compatible driver value.
func scalarOf(v value.Value) any {
	switch v.Kind() {
	case value.KindInt:
		return v.Int64()
	case value.KindFloat:
		return v.Float64()
	case value.KindBool:
		return v.BoolVal()
	case value.KindString:
		return v.Str()
	case value.KindDate:
		return v.Time().Format("2006-01-02")
	case value.KindTimestamp:
		return v.Time()
	case value.KindUUID:
		return v.UUIDVal().String()
	case value.KindEnum:
		return v.EnumName()
	default:
		return value.MustEncode(v)
	}
}

func (s *Store) load(ctx context.Context, p graph.Path, tbl *Table) (*zset.ZSet, error) {
	z := zset.New(tbl.Indexes...)
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		quote(s.dialect, ColumnID), quote(s.dialect, ColumnData), quote(s.dialect, ColumnC), quote(s.dialect, tbl.Name))

	var rows sqldrv.Rows
	if err := s.drv.Query(ctx, query, []any{}, &rows); err != nil {
		return nil, fmt.Errorf("sqlzset: load %s: %w", p, err)
	}
	defer rows.Close()

	sc := s.schema(p)
	for rows.Next() {
		var id []byte
		var data sql.RawBytes
		var c int64
		if err := rows.Scan(&id, &data, &c); err != nil {
			return nil, fmt.Errorf("sqlzset: load %s: scan: %w", p, err)
		}
		var (
			v   value.Value
			err error
		)
		if sc.Kind == value.SchemaAtom {
			v, err = value.Decode(sc, id)
		} else {
			v, err = value.Decode(sc, data)
		}
		if err != nil {
			return nil, fmt.Errorf("sqlzset: load %s: decode: %w", p, err)
		}
		z = z.Plus(zset.Single(v, c, tbl.Indexes...))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlzset: load %s: %w", p, err)
	}
	return z, nil
}

// IterByIndex queries p's committed rows directly through ix's declared
// SQL columns (table.go's `ixd__<index>__<field>` columns, indexed by
// CreateDDL's CREATE INDEX statements), rather than scanning a RAM
// materialization of the whole table — spec §4.4's on-demand indexed read.
// match.All orders every row by ix; a finite match.Vals runs a typed
// equality per requested key, OR'd together, so the planner can satisfy
// the read via the index instead of a sequential scan. Grounded on
// original_source/src/stepping/zset/postgres.go's get_by_key, adapted from
// its literal-JSON-array-of-key-components technique to this Store's
// already-typed ixd__ columns. Reads the last Inc's committed rows only
// (spec §4.8 step 6: "no output is user-visible before Inc completes"), so
// a pending-but-uncommitted Set on this vertex is intentionally not
// reflected here.
func (s *Store) IterByIndex(ctx context.Context, p graph.Path, ix *index.Index, match zset.Match) ([]zset.IndexEntry, error) {
	key := p.String()
	s.mu.Lock()
	tbl, ok := s.tables[key]
	dial := s.dialect
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sqlzset: vertex %q was never allocated", p)
	}

	var declared *index.Index
	for _, cand := range tbl.Indexes {
		if cand.Equal(ix) {
			declared = cand
			break
		}
	}
	if declared == nil {
		return nil, fmt.Errorf("sqlzset: vertex %q has no declared index %q", p, ix.Descriptor().Name)
	}
	if !match.All && len(match.Vals) == 0 {
		return nil, nil
	}

	d := declared.Descriptor()
	var whereExprs []string
	var args []any
	for _, k := range match.Vals {
		items := []value.Value{k}
		if d.IsComposite {
			items = k.Items()
		}
		var eq []string
		for i := range d.Fields {
			eq = append(eq, fmt.Sprintf("%s = ?", quote(dial, d.ColumnName(i))))
			args = append(args, scalarOf(items[i]))
		}
		whereExprs = append(whereExprs, "("+strings.Join(eq, " AND ")+")")
	}

	orderBy := make([]string, len(d.Fields))
	for i := range d.Fields {
		col := quote(dial, d.ColumnName(i))
		if d.Directions[i] == index.Desc {
			col += " DESC"
		}
		orderBy[i] = col
	}

	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		quote(dial, ColumnID), quote(dial, ColumnData), quote(dial, ColumnC), quote(dial, tbl.Name))
	if len(whereExprs) > 0 {
		query += " WHERE " + strings.Join(whereExprs, " OR ")
	}
	query += " ORDER BY " + strings.Join(orderBy, ", ")

	rows, err := queryRows(ctx, s.drv, rebind(dial, query), args)
	if err != nil {
		return nil, fmt.Errorf("sqlzset: IterByIndex %s: %w", p, err)
	}
	defer rows.Close()

	sc := s.schema(p)
	var out []zset.IndexEntry
	for rows.Next() {
		var id []byte
		var data sql.RawBytes
		var c int64
		if err := rows.Scan(&id, &data, &c); err != nil {
			return nil, fmt.Errorf("sqlzset: IterByIndex %s: scan: %w", p, err)
		}
		var v value.Value
		if sc.Kind == value.SchemaAtom {
			v, err = value.Decode(sc, id)
		} else {
			v, err = value.Decode(sc, data)
		}
		if err != nil {
			return nil, fmt.Errorf("sqlzset: IterByIndex %s: decode: %w", p, err)
		}
		out = append(out, zset.IndexEntry{Key: declared.KeyOf(v), V: v, C: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlzset: IterByIndex %s: %w", p, err)
	}
	return out, nil
}

// Clone returns an independent Store view over the same underlying
// database, tables, and dialect driver, but with its own current/pending/
// dirty staging: the original's Set/Inc calls don't leak into the clone
// (or vice versa) before each is explicitly committed. Mirrors the
// original engine's several ZSetPostgres instances sharing one (conn,
// table) pair while each tracks its own buffered `changes`
// (original_source/src/stepping/zset/postgres.go's
// _GLOBAL_CONN_TABLE_ZSET_MAP), generalized here to the whole Store.
func (s *Store) Clone() graph.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := &Store{
		drv:     s.drv,
		dialect: s.dialect,
		schema:  s.schema,
		cfg:     s.cfg,
		tables:  make(map[string]*Table, len(s.tables)),
		current: make(map[string]*zset.ZSet, len(s.current)),
		pending: make(map[string]*zset.ZSet, len(s.pending)),
		dirty:   map[string]bool{},
	}
	for k, t := range s.tables {
		clone.tables[k] = t
	}
	for k, z := range s.current {
		clone.current[k] = z
	}
	for k, z := range s.pending {
		clone.pending[k] = z
	}
	return clone
}

// Conn exposes the Store's underlying driver for callers that want to run
// ReadFrontier/WaitForFrontier directly (e.g. a reader process with no
// Store of its own, only a database handle).
func (s *Store) Conn() dialect.ExecQuerier { return s.drv }

// Dialect returns the store's dialect constant (dialect.Postgres/MySQL/
// SQLite).
func (s *Store) Dialect() string { return s.dialect }

var _ graph.Store = (*Store)(nil)
