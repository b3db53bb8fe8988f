package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ridoystarlord/cteshape/catalog"
	"github.com/ridoystarlord/cteshape/logging"
	"github.com/ridoystarlord/cteshape/schema"
	"github.com/ridoystarlord/cteshape/utils"
	"github.com/spf13/cobra"
)

var (
	mappingFile  string
	logLevel     string
	outputFormat string
)

var (
	logger      = logging.Discard()
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "cteshape",
	Short: "Derive CTE and temporary table shapes from entity mappings",
	Long: `cteshape flattens entity mappings into the column layout used by
temporary tables and common table expressions.

Examples:

  cteshape init
  cteshape validate
  cteshape tables Order
  cteshape offset Order address.city
  cteshape ddl --cte
  cteshape materialize
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.LoadEnv()
		level := logLevel
		if level == "" {
			level = utils.Getenv("CTESHAPE_LOG_LEVEL", "warn")
		}
		logger, closeLogger = logging.SetupLogger(logging.ParseLevel(level))
		slog.SetDefault(logger)
	},
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLogger()
	if err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&mappingFile, "mapping", "m", "mapping.yaml", "Mapping YAML file, or a directory of Go structs with cteshape tags")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to CTESHAPE_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, json)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(offsetCmd)
	rootCmd.AddCommand(ddlCmd)
	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(healthCmd)
}

// loadMapping reads the mapping file and builds every table shape.
func loadMapping(ctx context.Context) (*schema.Metamodel, *catalog.Catalog, error) {
	mm, c, err := catalog.Load(ctx, mappingFile, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", mappingFile, err)
	}
	return mm, c, nil
}

// selectShapes returns the shapes of the named entities, or all of them.
func selectShapes(c *catalog.Catalog, names []string) ([]*catalog.Shapes, error) {
	if len(names) == 0 {
		return c.All(), nil
	}
	var result []*catalog.Shapes
	for _, name := range names {
		s := c.Get(name)
		if s == nil {
			return nil, fmt.Errorf("unknown entity %q", name)
		}
		result = append(result, s)
	}
	return result, nil
}
