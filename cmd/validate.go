package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/cteshape/catalog"
	"github.com/ridoystarlord/cteshape/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the mapping file",
	Long: `Validate the mapping file without a database.

This command checks:
- Table and column naming (PostgreSQL identifier rules, reserved keywords)
- Duplicate attributes, including ones hiding a supertype attribute
- Flattened column names that collide in an entity table
- Foreign keys: resolution and join column counts
- Discriminators of inheritance hierarchies

Examples:
  cteshape validate                      # Validate mapping.yaml
  cteshape validate -m shop.yaml         # Validate another mapping file
  cteshape validate --format json        # Output validation results as JSON
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := validateMapping(cmd.Context(), mappingFile)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			if err := outputJSON(os.Stdout, result); err != nil {
				return err
			}
		} else {
			outputText(os.Stdout, result)
		}

		if !result.Valid {
			return fmt.Errorf("mapping validation failed with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

// validateMapping checks the metamodel first and only then derives every
// table, so mapping problems are reported instead of failing the load.
func validateMapping(ctx context.Context, filename string) (*validator.ValidationResult, error) {
	mm, err := catalog.LoadMetamodel(ctx, filename, logger)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}

	result := validator.Validate(mm)
	if !result.Valid {
		return result, nil
	}

	c, err := catalog.BuildAll(ctx, mm)
	if err != nil {
		return nil, fmt.Errorf("deriving tables: %w", err)
	}
	logger.Info("tables derived", "entities", len(c.All()))
	return result, nil
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputText(w io.Writer, result *validator.ValidationResult) {
	if result.Valid {
		color.New(color.FgGreen).Fprintln(w, "✅ Mapping validation passed!")
	} else {
		color.New(color.FgRed).Fprintln(w, "❌ Mapping validation failed!")
	}

	printIssues(w, "\n🔴 Errors", result.Errors)
	printIssues(w, "\n🟡 Warnings", result.Warnings)
	printIssues(w, "\n🔵 Info", result.Info)

	fmt.Fprintf(w, "\n📊 Summary:\n")
	fmt.Fprintf(w, "  • Errors: %d\n", len(result.Errors))
	fmt.Fprintf(w, "  • Warnings: %d\n", len(result.Warnings))
	fmt.Fprintf(w, "  • Info: %d\n", len(result.Info))
}

func printIssues(w io.Writer, title string, issues []validator.ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(issues))
	for i, issue := range issues {
		fmt.Fprintf(w, "  %d. ", i+1)
		if issue.Entity != "" {
			fmt.Fprintf(w, "[%s]", issue.Entity)
		}
		if issue.Attribute != "" {
			fmt.Fprintf(w, ".%s", issue.Attribute)
		}
		if issue.Column != "" {
			fmt.Fprintf(w, " (column: %s)", issue.Column)
		}
		fmt.Fprintf(w, ": %s\n", issue.Message)
	}
}
