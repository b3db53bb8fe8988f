package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/schema"
)

var sqlTypes = map[string]string{
	schema.Integer.Name:   "integer",
	schema.Bigint.Name:    "bigint",
	schema.Smallint.Name:  "smallint",
	schema.Numeric.Name:   "numeric",
	schema.Double.Name:    "double precision",
	schema.Text.Name:      "text",
	schema.Varchar.Name:   "varchar(255)",
	schema.Char.Name:      "char(1)",
	schema.Boolean.Name:   "boolean",
	schema.Date.Name:      "date",
	schema.Timestamp.Name: "timestamp",
	schema.UUID.Name:      "uuid",
	schema.Binary.Name:    "bytea",
}

// SQLType returns the PostgreSQL column type for a scalar mapping.
func SQLType(m schema.JdbcMapping) (string, error) {
	t, ok := sqlTypes[m.Name]
	if !ok {
		return "", fmt.Errorf("no SQL type for mapping %q", m.Name)
	}
	return t, nil
}

// Quote renders an identifier safely quoted.
func Quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// CreateTemporaryTable renders the DDL creating t as a temporary table. A
// row number column, when present, becomes the primary key.
func CreateTemporaryTable(t *cte.Table) (string, error) {
	var defs []string
	hasRowNumber := false
	for _, col := range t.Columns() {
		sqlType, err := SQLType(col.Mapping)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		def := fmt.Sprintf("%s %s", Quote(col.Name), sqlType)
		if col.Name == cte.RowNumberColumn {
			def += " NOT NULL"
			hasRowNumber = true
		}
		defs = append(defs, def)
	}
	if hasRowNumber {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", Quote(cte.RowNumberColumn)))
	}
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s);", Quote(t.Name()), strings.Join(defs, ", ")), nil
}

// DropTemporaryTable renders the DDL dropping t.
func DropTemporaryTable(t *cte.Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", Quote(t.Name()))
}

// CTEHeader renders `name (col, ...)` for use in a WITH clause.
func CTEHeader(t *cte.Table) string {
	names := t.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Quote(n)
	}
	return fmt.Sprintf("%s (%s)", Quote(t.Name()), strings.Join(quoted, ", "))
}

// WithClause wraps body as the definition of t.
func WithClause(t *cte.Table, body string) string {
	return fmt.Sprintf("WITH %s AS (\n%s\n)", CTEHeader(t), body)
}

// GenerateSQL returns the create statements for tables, in order.
func GenerateSQL(tables []*cte.Table) ([]string, error) {
	var stmts []string
	for _, t := range tables {
		stmt, err := CreateTemporaryTable(t)
		if err != nil {
			return nil, fmt.Errorf("generate CREATE TEMPORARY TABLE %s: %w", t.Name(), err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// GenerateDropSQL returns the drop statements for tables, in reverse order.
func GenerateDropSQL(tables []*cte.Table) []string {
	stmts := make([]string, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		stmts = append(stmts, DropTemporaryTable(tables[i]))
	}
	return stmts
}

// WriteScriptFile saves create and drop statements into a timestamped .sql
// file under dir with up/down sections.
func WriteScriptFile(dir string, createStatements, dropStatements []string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	timestamp := time.Now().Format("20060102150405")
	filename := filepath.Join(dir, timestamp+"_cte_tables.sql")

	var b strings.Builder
	b.WriteString("-- Generated: " + timestamp + "\n\n")
	b.WriteString("-- Up\n")
	b.WriteString("-- ==\n")
	for _, stmt := range createStatements {
		b.WriteString(stmt + "\n")
	}
	b.WriteString("\n-- Down\n")
	b.WriteString("-- ====\n")
	for _, stmt := range dropStatements {
		b.WriteString(stmt + "\n")
	}

	if err := os.WriteFile(filename, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing script file: %w", err)
	}
	return filename, nil
}
