package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const sampleMapping = `# Entity mapping read by cteshape.
#
# Attribute kinds: basic, embedded, to-one, any, plural. The kind is inferred
# when omitted: nested attributes make an embedded value, a target makes an
# association, discriminator/key make a discriminated association.
entities:
  - name: Customer
    table: customers
    id: {name: id, type: bigint}
    attributes:
      - {name: name, type: text}
      - name: address
        attributes:
          - {name: street, type: varchar}
          - {name: city, type: varchar}

  - name: Order
    table: orders
    id: {name: id, type: bigint}
    attributes:
      - {name: total, type: numeric}
      - {name: customer, target: Customer, join_columns: [customer_id]}
      - {name: invoice, target: Invoice, relation: one-to-one, mapped_by: order}
      - {name: lines, target: LineItem, relation: one-to-many}
      - name: payment
        discriminator: {type: varchar}
        key: {type: bigint}

  - name: Invoice
    table: invoices
    id: {name: id, type: bigint}
    attributes:
      - {name: number, type: varchar}
      - {name: order, target: Order, relation: one-to-one}

  - name: LineItem
    table: line_items
    id:
      attributes:
        - {name: order, target: Order}
        - {name: lineNo, type: integer}
    attributes:
      - {name: quantity, type: integer}

  - name: Vehicle
    table: vehicles
    id: {name: id, type: bigint}
    discriminator: {column: dtype}
    attributes:
      - {name: wheels, type: integer}

  - name: Car
    extends: Vehicle
    attributes:
      - {name: seats, type: integer}
`

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample mapping file",
	Long: `Write a sample mapping file covering every attribute kind.

Examples:
  cteshape init                      # Create mapping.yaml
  cteshape init -m shop.yaml         # Create shop.yaml
  cteshape init --force              # Overwrite an existing file
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(mappingFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", mappingFile)
		}

		if err := os.WriteFile(mappingFile, []byte(sampleMapping), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", mappingFile, err)
		}

		color.Green("✅ Created %s", mappingFile)
		fmt.Println("📝 Edit the entities, then run 'cteshape validate' and 'cteshape tables'")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing mapping file")
}
