package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ridoystarlord/cteshape/cte"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type ExistingColumn struct {
	ColumnName string
	DataType   string
	IsNullable bool
}

// columnsQuery resolves the name through the search path, so a session's
// temporary table shadows a permanent table with the same name.
const columnsQuery = `
	SELECT a.attname, format_type(a.atttypid, a.atttypmod), NOT a.attnotnull
	FROM pg_attribute a
	WHERE a.attrelid = to_regclass($1)
	  AND a.attnum > 0
	  AND NOT a.attisdropped
	ORDER BY a.attnum;
	`

// Columns reads the physical columns of table in declared order. A table that
// does not exist yields no columns.
func Columns(ctx context.Context, q Querier, table string) ([]ExistingColumn, error) {
	rows, err := q.Query(ctx, columnsQuery, pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		if err := rows.Scan(&col.ColumnName, &col.DataType, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		columns = append(columns, col)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %w", rows.Err())
	}

	return columns, nil
}

// Verify reports where the physical columns disagree with the table shape,
// by count, name or position.
func Verify(t *cte.Table, existing []ExistingColumn) error {
	expected := t.ColumnNames()
	if len(existing) == 0 {
		return fmt.Errorf("table %s does not exist", t.Name())
	}

	var problems []string
	if len(existing) != len(expected) {
		problems = append(problems, fmt.Sprintf("expected %d columns, found %d", len(expected), len(existing)))
	}
	for i := 0; i < len(expected) && i < len(existing); i++ {
		if expected[i] != existing[i].ColumnName {
			problems = append(problems, fmt.Sprintf("column %d: expected %s, found %s", i, expected[i], existing[i].ColumnName))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("table %s: %s", t.Name(), strings.Join(problems, "; "))
	}
	return nil
}
