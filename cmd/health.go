package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/ridoystarlord/cteshape/database"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check that the database is reachable and that the current user may
create temporary tables.

Examples:
  cteshape health                    # Check default database connection
  cteshape health --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDatabaseHealth(cmd.Context()); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		color.Green("✅ Database is healthy and accessible")
		return nil
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	pool, err := database.GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database pool: %w", err)
	}
	defer database.ClosePool()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var canCreateTemp bool
	query := `SELECT has_database_privilege(current_database(), 'TEMP')`
	if err := pool.QueryRow(ctx, query).Scan(&canCreateTemp); err != nil {
		return fmt.Errorf("failed to check TEMP privilege: %w", err)
	}

	if !canCreateTemp {
		color.Yellow("⚠️  Database is accessible but the current user cannot create temporary tables")
		return nil
	}

	var version string
	if err := pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read server version: %w", err)
	}
	fmt.Printf("📊 PostgreSQL %s, temporary tables allowed\n", version)

	return nil
}
