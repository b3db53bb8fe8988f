package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/cteshape/catalog"
	"github.com/ridoystarlord/cteshape/cte"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [entity...]",
	Short: "Show the id and entity tables derived from each entity",
	Long: `Show the column layout of the id table and entity table of each entity.

Examples:
  cteshape tables                    # All entities
  cteshape tables Order Customer     # Selected entities
  cteshape tables --format json      # Machine readable
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

		if outputFormat == "json" {
			return outputJSON(os.Stdout, tablesReport(shapes))
		}
		for _, s := range shapes {
			printShapes(os.Stdout, s)
		}
		return nil
	},
}

type tableJSON struct {
	Name    string       `json:"name"`
	Columns []columnJSON `json:"columns"`
}

type columnJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type shapesJSON struct {
	Entity      string    `json:"entity"`
	IDTable     tableJSON `json:"id_table"`
	EntityTable tableJSON `json:"entity_table"`
}

func tablesReport(shapes []*catalog.Shapes) []shapesJSON {
	report := make([]shapesJSON, 0, len(shapes))
	for _, s := range shapes {
		report = append(report, shapesJSON{
			Entity:      s.Entity.Name,
			IDTable:     toTableJSON(s.IDTable),
			EntityTable: toTableJSON(s.EntityTable),
		})
	}
	return report
}

func toTableJSON(t *cte.Table) tableJSON {
	tj := tableJSON{Name: t.Name()}
	for _, col := range t.Columns() {
		tj.Columns = append(tj.Columns, columnJSON{Name: col.Name, Type: col.Mapping.String()})
	}
	return tj
}

func printShapes(w io.Writer, s *catalog.Shapes) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "📋 %s\n", s.Entity.Name)
	printTable(w, "id table", s.IDTable)
	printTable(w, "entity table", s.EntityTable)
	fmt.Fprintln(w)
}

func printTable(w io.Writer, label string, t *cte.Table) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintf(w, "  %s ", label)
	cyan.Fprintf(w, "%s", t.Name())
	fmt.Fprintf(w, " (%d columns)\n", t.ColumnCount())
	for i, col := range t.Columns() {
		fmt.Fprintf(w, "    %2d  %-32s %s\n", i, col.Name, col.Mapping)
	}
}
