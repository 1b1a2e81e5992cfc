package sqlzset

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/stepping/dialect"
	sqldrv "github.com/syssam/stepping/dialect/sql"

	"github.com/syssam/stepping/contrib/dataloader"
	"github.com/syssam/stepping/value"
)

// idCount is one row's identity/count pair, keyed by the hex identity
// string so it can serve as dataloader's comparable key type.
type idCount struct {
	id string
	c  int64
}

// GetMany batch-fetches the counts for a finite set of keys out of p's
// table in a single round trip, returning one count per key in request
// order (0 for a key with no row). Adapted from contrib/dataloader's
// generic OrderByKeys, which exists to turn an unordered batch result back
// into per-request order; here the "batch" is a single SQL IN (...) query
// rather than a GraphQL resolver's N+1 loads, but the reordering problem —
// and OrderByKeys's solution to it — is the same.
func (s *Store) GetMany(ctx context.Context, p string, keys []value.Value) ([]int64, error) {
	s.mu.Lock()
	tbl, ok := s.tables[p]
	dial := s.dialect
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sqlzset: vertex %q was never allocated", p)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	reqKeys := make([]string, len(keys))
	ids := make([]any, len(keys))
	for i, k := range keys {
		id := value.Identity(k)
		reqKeys[i] = string(id)
		ids[i] = id
	}
	placeholders := make([]string, len(ids))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := rebind(dial, fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		quote(dial, ColumnID), quote(dial, ColumnC), quote(dial, tbl.Name),
		quote(dial, ColumnID), strings.Join(placeholders, ", ")))

	rows, err := queryRows(ctx, s.drv, query, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlzset: GetMany %s: %w", p, err)
	}
	defer rows.Close()

	var found []idCount
	for rows.Next() {
		var id []byte
		var c int64
		if err := rows.Scan(&id, &c); err != nil {
			return nil, fmt.Errorf("sqlzset: GetMany %s: scan: %w", p, err)
		}
		found = append(found, idCount{id: string(id), c: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlzset: GetMany %s: %w", p, err)
	}

	ordered, _ := dataloader.OrderByKeys(reqKeys, found, func(f idCount) string { return f.id })
	counts := make([]int64, len(ordered))
	for i, f := range ordered {
		counts[i] = f.c // zero value for a key dataloader.OrderByKeys couldn't match
	}
	return counts, nil
}

func queryRows(ctx context.Context, conn dialect.ExecQuerier, query string, args []any) (sqldrv.Rows, error) {
	var rows sqldrv.Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return sqldrv.Rows{}, err
	}
	return rows, nil
}
