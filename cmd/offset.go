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

var offsetCmd = &cobra.Command{
	Use:   "offset <entity> <attribute-path>",
	Short: "Show where an attribute's columns start in the entity table",
	Long: `Show the position of an attribute's first column in the entity's table,
along with the columns it spans.

The path is dotted for nested values. The first segment may also name the
identifier, "class" for the discriminator, or an attribute declared on a
supertype or subtype of the entity.

Examples:
  cteshape offset Order customer
  cteshape offset Order address.city
  cteshape offset Order payment.key
  cteshape offset Vehicle class
  cteshape offset Vehicle payload
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadMapping(cmd.Context())
		if err != nil {
			return err
		}

		s := c.Get(args[0])
		if s == nil {
			return fmt.Errorf("unknown entity %q", args[0])
		}

		report, err := resolveOffset(s, args[1])
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return outputJSON(os.Stdout, report)
		}
		printOffset(os.Stdout, report)
		return nil
	},
}

type offsetJSON struct {
	Entity  string   `json:"entity"`
	Path    string   `json:"path"`
	Table   string   `json:"table"`
	Offset  int      `json:"offset"`
	Columns []string `json:"columns"`
}

func resolveOffset(s *catalog.Shapes, path string) (*offsetJSON, error) {
	part := s.Entity.FindPart(path)
	if part == nil {
		return nil, fmt.Errorf("%s has no attribute %q: %w", s.Entity.Name, path, cte.ErrModelPartNotFound)
	}

	offset, err := cte.ModelPartStartIndex(s.Entity, part)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Entity.QualifiedName(part), err)
	}

	names := s.EntityTable.ColumnNames()
	end := offset + part.JdbcTypeCount()
	if end > len(names) {
		return nil, fmt.Errorf("%s spans past the end of %s", path, s.EntityTable.Name())
	}

	return &offsetJSON{
		Entity:  s.Entity.Name,
		Path:    path,
		Table:   s.EntityTable.Name(),
		Offset:  offset,
		Columns: names[offset:end],
	}, nil
}

func printOffset(w io.Writer, r *offsetJSON) {
	fmt.Fprintf(w, "%s.%s in ", r.Entity, r.Path)
	color.New(color.FgCyan).Fprintf(w, "%s", r.Table)
	fmt.Fprintf(w, ": offset ")
	color.New(color.Bold).Fprintf(w, "%d", r.Offset)
	fmt.Fprintln(w)
	if len(r.Columns) == 0 {
		color.New(color.FgYellow).Fprintln(w, "  (no columns: inverse side of its association)")
		return
	}
	for i, name := range r.Columns {
		fmt.Fprintf(w, "  %2d  %s\n", r.Offset+i, name)
	}
}
