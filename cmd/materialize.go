package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/ridoystarlord/cteshape/database"
	"github.com/ridoystarlord/cteshape/runner"
	"github.com/spf13/cobra"
)

var materializeKeep bool

var materializeCmd = &cobra.Command{
	Use:   "materialize [entity...]",
	Short: "Create the derived tables as temporary tables and verify them",
	Long: `Create the id and entity tables of each entity as temporary tables in one
transaction, read their columns back from the catalog and compare them with
the derived shapes. Table names get a per-run suffix. Requires DATABASE_URL.

Examples:
  cteshape materialize               # All entities
  cteshape materialize Order         # Only Order's tables
  cteshape materialize --keep        # Skip the explicit drop at the end
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, c, err := loadMapping(ctx)
		if err != nil {
			return err
		}

		shapes, err := selectShapes(c, args)
		if err != nil {
			return err
		}

		conn, err := database.Acquire(ctx)
		if err != nil {
			return err
		}
		defer database.ClosePool()
		defer conn.Release()

		r := runner.New(conn, logger)
		created, err := r.Materialize(ctx, flattenShapes(shapes))
		if err != nil {
			return fmt.Errorf("materializing tables: %w", err)
		}

		for _, t := range created {
			fmt.Printf("✅ %s (%d columns verified)\n", t.Name(), t.ColumnCount())
		}

		if materializeKeep {
			color.Yellow("⚠️  Tables kept until the session ends")
			return nil
		}
		if err := r.Drop(ctx, created); err != nil {
			return err
		}
		color.Green("✅ %d temporary tables created, verified and dropped", len(created))
		return nil
	},
}

func init() {
	materializeCmd.Flags().BoolVar(&materializeKeep, "keep", false, "Leave the tables in place until the session ends")
}
