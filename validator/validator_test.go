package validator

import (
	"context"
	"testing"

	"github.com/ridoystarlord/cteshape/bootstrap"
	"github.com/ridoystarlord/cteshape/catalog"
	"github.com/ridoystarlord/cteshape/loader"
	"github.com/ridoystarlord/cteshape/logging"
	"github.com/ridoystarlord/cteshape/schema"
)

func parse(t *testing.T, doc string, resolve bool) *schema.Metamodel {
	t.Helper()
	process := bootstrap.NewProcess(logging.Discard())
	mm, err := loader.ParseMetamodel([]byte(doc), process)
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	if resolve {
		if err := process.Execute(context.Background()); err != nil {
			t.Fatalf("\ngot unexpected error: \"%v\"", err)
		}
	}
	return mm
}

func hasType(errs []ValidationError, typ string) bool {
	for _, e := range errs {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestValidateShop(t *testing.T) {
	mm, _, err := catalog.Load(context.Background(), "../loader/testdata/shop.yaml", logging.Discard())
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}

	result := Validate(mm)
	if !result.Valid {
		t.Errorf("\ngot errors %v", result.Errors)
	}
	if !hasType(result.Info, "collection") {
		t.Errorf("\nexpected collections to be reported, got %v", result.Info)
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name     string
		doc      string
		resolve  bool
		errType  string
		warnType string
	}{
		{"reserved table name", `
entities:
  - {name: A, table: order, id: {name: id, type: bigint}}
`, true, "table_name", ""},
		{"colliding columns", `
entities:
  - name: A
    id: {name: id, type: bigint}
    attributes:
      - {name: b, target: B}
      - {name: b_id, type: bigint}
  - {name: B, id: {name: id, type: bigint}}
`, true, "duplicate_column", ""},
		{"duplicate attribute", `
entities:
  - name: A
    id: {name: id, type: bigint}
    attributes:
      - {name: x, type: text}
      - {name: x, type: text}
`, true, "duplicate_attribute", ""},
		{"attribute hides supertype", `
entities:
  - name: A
    id: {name: id, type: bigint}
    discriminator: {column: dtype}
    attributes:
      - {name: x, type: text}
  - name: B
    extends: A
    attributes:
      - {name: x, type: text}
`, true, "duplicate_attribute", ""},
		{"join column count", `
entities:
  - name: A
    id: {name: id, type: bigint}
    attributes:
      - {name: b, target: B, join_columns: [b1, b2]}
  - {name: B, id: {name: id, type: bigint}}
`, true, "join_columns", ""},
		{"unresolved foreign key", `
entities:
  - name: A
    id: {name: id, type: bigint}
    attributes:
      - {name: b, target: B}
  - {name: B, id: {name: id, type: bigint}}
`, false, "foreign_key", ""},
		{"subtypes without discriminator", `
entities:
  - {name: A, id: {name: id, type: bigint}}
  - {name: B, extends: A}
`, true, "", "no_discriminator"},
		{"discriminator without subtypes", `
entities:
  - {name: A, id: {name: id, type: bigint}, discriminator: {column: dtype}}
`, true, "", "unused_discriminator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(parse(t, tt.doc, tt.resolve))
			if tt.errType != "" {
				if result.Valid || !hasType(result.Errors, tt.errType) {
					t.Errorf("\nexpected %s error, got %v", tt.errType, result.Errors)
				}
			}
			if tt.warnType != "" {
				if !result.Valid {
					t.Errorf("\ngot unexpected errors %v", result.Errors)
				}
				if !hasType(result.Warnings, tt.warnType) {
					t.Errorf("\nexpected %s warning, got %v", tt.warnType, result.Warnings)
				}
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	var tests = []struct {
		name     string
		input    string
		errIsNil bool
	}{
		{"plain", "line_items", true},
		{"empty", "", false},
		{"dash", "line-items", false},
		{"keyword", "Group", false},
		{"too long", "a123456789012345678901234567890123456789012345678901234567890123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIdentifier("table", tt.input)
			if (err == nil) != tt.errIsNil {
				if tt.errIsNil {
					t.Errorf("\ngot unexpected error: \"%v\"", err)
				} else {
					t.Errorf("\nexpected an error, did not receive one")
				}
			}
		})
	}
}
