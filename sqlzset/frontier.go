package sqlzset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/dialect"
	sqldrv "github.com/syssam/stepping/dialect/sql"
)

// rebind rewrites a query written with "?" placeholders into the target
// dialect's own placeholder syntax (Postgres wants $1, $2, ...; SQLite and
// MySQL both accept "?" natively). Grounded on dialect/sql/driver.go's own
// dialect-switches for session variable syntax.
func rebind(dial, query string) string {
	if dial != dialect.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// batchUpsertSQL renders an INSERT ... ON CONFLICT/DUPLICATE KEY UPDATE
// statement over n row tuples of cols in a single round trip (spec §4.4's
// batch-of-1000 description), generalizing upsertSQL's single-row
// placeholder list to n repeated tuples.
func batchUpsertSQL(dial, table string, cols []string, n int) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "?"
	}
	rowTuple := "(" + strings.Join(placeholders, ", ") + ")"
	rows := make([]string, n)
	for i := range rows {
		rows[i] = rowTuple
	}
	base := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quote(dial, table), strings.Join(cols, ", "), strings.Join(rows, ", "))

	updates := make([]string, 0, len(cols)-1)
	switch dial {
	case dialect.MySQL:
		for _, c := range cols[1:] {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
		return rebind(dial, fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s", base, strings.Join(updates, ", ")))
	default: // postgres, sqlite both support the standard upsert clause
		for _, c := range cols[1:] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
		return rebind(dial, fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", base, quote(dial, ColumnID), strings.Join(updates, ", ")))
	}
}

// bumpFrontier advances table's last_update row to the next step, creating
// it on first use (spec §4.4: "the store advances last_update.t for this
// table" as part of Inc).
func bumpFrontier(ctx context.Context, tx dialect.ExecQuerier, dial, table string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (?, 1) ON CONFLICT (%s) DO UPDATE SET %s = %s.%s + 1",
		quote(dial, FrontierTable), quote(dial, "table_name"), quote(dial, "t"),
		quote(dial, "table_name"), quote(dial, "t"), quote(dial, FrontierTable), quote(dial, "t"),
	)
	if dial == dialect.MySQL {
		query = fmt.Sprintf(
			"INSERT INTO %s (%s, %s) VALUES (?, 1) ON DUPLICATE KEY UPDATE %s = %s + 1",
			quote(dial, FrontierTable), quote(dial, "table_name"), quote(dial, "t"), quote(dial, "t"), quote(dial, "t"),
		)
	}
	return tx.Exec(ctx, rebind(dial, query), []any{table}, nil)
}

// ReadFrontier returns table's last committed step.
func ReadFrontier(ctx context.Context, conn dialect.ExecQuerier, dial, table string) (int64, error) {
	query := rebind(dial, fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quote(dial, "t"), quote(dial, FrontierTable), quote(dial, "table_name")))

	var rows sqldrv.Rows
	if err := conn.Query(ctx, query, []any{table}, &rows); err != nil {
		return 0, fmt.Errorf("sqlzset: read frontier: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, nil // not yet allocated; frontier starts at 0
	}
	var t int64
	if err := rows.Scan(&t); err != nil {
		return 0, fmt.Errorf("sqlzset: read frontier: scan: %w", err)
	}
	return t, rows.Err()
}

// WaitForFrontier polls table's frontier until it reaches at least t,
// backing off exponentially between cfg's FrontierPollMin/FrontierPollMax
// bounds (spec §4.4/§5/§10.3: bounded exponential-backoff polling for
// cross-process readers), returning stepping.ErrFrontierTimeout if
// deadline elapses first. cfg is optional; omitting it uses
// stepping.DefaultConfig's 10ms-5s bounds.
func WaitForFrontier(ctx context.Context, conn dialect.ExecQuerier, dial, table string, t int64, deadline time.Duration, cfg ...stepping.Config) error {
	c := stepping.DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0].WithDefaults()
	}
	start := time.Now()
	delay := c.FrontierPollMin
	for {
		cur, err := ReadFrontier(ctx, conn, dial, table)
		if err != nil {
			return err
		}
		if cur >= t {
			return nil
		}
		if time.Since(start) >= deadline {
			return fmt.Errorf("sqlzset: waiting for %s to reach step %d: %w", table, t, stepping.ErrFrontierTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.FrontierPollMax {
			delay = c.FrontierPollMax
		}
	}
}
