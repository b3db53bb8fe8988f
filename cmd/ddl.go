package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/ridoystarlord/cteshape/catalog"
	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/generator"
	"github.com/spf13/cobra"
)

var (
	ddlCTE    bool
	ddlOutDir string
	ddlSelect []string
)

func init() {
	ddlCmd.Flags().BoolVar(&ddlCTE, "cte", false, "Print WITH clause headers instead of CREATE statements")
	ddlCmd.Flags().StringSliceVarP(&ddlSelect, "select", "s", nil, "Attribute paths forming the CTE select list (with --cte, one entity)")
	ddlCmd.Flags().StringVarP(&ddlOutDir, "out", "o", "", "Write a timestamped script with create and drop sections into this directory")
}

var ddlCmd = &cobra.Command{
	Use:   "ddl [entity...]",
	Short: "Generate SQL for the derived tables",
	Long: `Generate CREATE TEMPORARY TABLE statements, or CTE headers, for the id
and entity tables of each entity.

Examples:
  cteshape ddl                       # Print CREATE/DROP statements for all entities
  cteshape ddl Order                 # Only Order's tables
  cteshape ddl --cte                 # Print "name (col, ...)" CTE headers
  cteshape ddl --cte Order -s customer,address.city
                                     # CTE over a tuple of Order's attributes
  cteshape ddl -o sql/               # Write a script file instead of printing
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadMapping(cmd.Context())
		if err != nil {
			return err
		}

		shapes, err := selectShapes(c, args)
		if err != nil {
			return err
		}

		if len(ddlSelect) > 0 {
			if !ddlCTE || len(shapes) != 1 {
				return fmt.Errorf("--select needs --cte and exactly one entity")
			}
			table, err := tupleTable(shapes[0], ddlSelect)
			if err != nil {
				return err
			}
			return printTupleCTE(os.Stdout, table, ddlSelect)
		}

		tables := flattenShapes(shapes)
		if ddlCTE {
			for _, t := range tables {
				fmt.Println(generator.WithClause(t, "  SELECT ..."))
			}
			return nil
		}

		creates, err := generator.GenerateSQL(tables)
		if err != nil {
			return err
		}
		drops := generator.GenerateDropSQL(tables)

		if ddlOutDir != "" {
			filename, err := generator.WriteScriptFile(ddlOutDir, creates, drops)
			if err != nil {
				return err
			}
			color.Green("✅ Script written: %s", filename)
			return nil
		}

		fmt.Println("-- Up")
		fmt.Println(strings.Join(creates, "\n"))
		fmt.Println("\n-- Down")
		fmt.Println(strings.Join(drops, "\n"))
		return nil
	},
}

// tupleTable builds a CTE whose columns are the flattened parts at paths.
// Each entry is aliased by its path with dots replaced by underscores.
func tupleTable(s *catalog.Shapes, paths []string) (*cte.Table, error) {
	entries := make([]cte.TupleEntry, 0, len(paths))
	for _, path := range paths {
		part := s.Entity.FindPart(path)
		if part == nil {
			return nil, fmt.Errorf("%s has no attribute %q: %w", s.Entity.Name, path, cte.ErrModelPartNotFound)
		}
		entries = append(entries, cte.TupleEntry{Alias: tupleAlias(path), Part: part})
	}
	return cte.NewShapedTable("cte_"+s.Entity.Table, cte.NewTupleShape(entries...))
}

func tupleAlias(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// printTupleCTE prints the WITH clause followed by the column range each
// selected path occupies.
func printTupleCTE(w io.Writer, t *cte.Table, paths []string) error {
	shape, ok := t.Shape().(*cte.TupleShape)
	if !ok {
		return fmt.Errorf("%s has no tuple shape", t.Name())
	}
	fmt.Fprintln(w, generator.WithClause(t, "  SELECT ..."))
	for _, path := range paths {
		start, end, err := shape.ColumnRange(tupleAlias(path))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "-- %s: columns [%d, %d)\n", path, start, end)
	}
	return nil
}

// flattenShapes lists id and entity tables in entity order.
func flattenShapes(shapes []*catalog.Shapes) []*cte.Table {
	tables := make([]*cte.Table, 0, 2*len(shapes))
	for _, s := range shapes {
		tables = append(tables, s.IDTable, s.EntityTable)
	}
	return tables
}
