package validator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/schema"
)

// maxIdentifierLength is the longest name PostgreSQL keeps without truncating.
const maxIdentifierLength = 63

// ValidationError represents a validation error with details
type ValidationError struct {
	Type      string `json:"type"`
	Entity    string `json:"entity,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Column    string `json:"column,omitempty"`
	Message   string `json:"message"`
	Severity  string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func (r *ValidationResult) addError(e ValidationError) {
	e.Severity = "error"
	r.Errors = append(r.Errors, e)
}

func (r *ValidationResult) addWarning(e ValidationError) {
	e.Severity = "warning"
	r.Warnings = append(r.Warnings, e)
}

func (r *ValidationResult) addInfo(e ValidationError) {
	e.Severity = "info"
	r.Info = append(r.Info, e)
}

// Validate checks a loaded metamodel for problems that would surface only
// when its tables are built or materialized. It needs no database.
func Validate(mm *schema.Metamodel) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}

	for _, entity := range mm.Entities() {
		validateEntity(entity, result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateEntity(entity *schema.Entity, result *ValidationResult) {
	if err := validateIdentifier("table", entity.Table); err != nil {
		result.addError(ValidationError{
			Type:    "table_name",
			Entity:  entity.Name,
			Message: err.Error(),
		})
	}

	if entity.Identifier == nil {
		result.addError(ValidationError{
			Type:    "no_identifier",
			Entity:  entity.Name,
			Message: fmt.Sprintf("Entity '%s' has no identifier", entity.Name),
		})
		return
	}

	validateAttributeNames(entity, result)
	validateDiscriminator(entity, result)

	for _, attr := range entity.Attributes {
		validatePart(entity, attr.PartName(), attr, result)
	}

	validateColumns(entity, result)
}

// validateAttributeNames flags attributes that hide one declared on a
// supertype or repeat within the entity.
func validateAttributeNames(entity *schema.Entity, result *ValidationResult) {
	seen := make(map[string]bool)
	for _, attr := range entity.Attributes {
		name := attr.PartName()
		if seen[name] {
			result.addError(ValidationError{
				Type:      "duplicate_attribute",
				Entity:    entity.Name,
				Attribute: name,
				Message:   fmt.Sprintf("Duplicate attribute '%s' in entity '%s'", name, entity.Name),
			})
			continue
		}
		seen[name] = true

		if entity.SuperType != nil && entity.SuperType.Attribute(name) != nil {
			result.addError(ValidationError{
				Type:      "duplicate_attribute",
				Entity:    entity.Name,
				Attribute: name,
				Message:   fmt.Sprintf("Attribute '%s' is already declared by a supertype of '%s'", name, entity.Name),
			})
		}
	}
}

func validateDiscriminator(entity *schema.Entity, result *ValidationResult) {
	if entity.SuperType != nil {
		return
	}
	d := entity.Discriminator
	switch {
	case d == nil && len(entity.SubTypes) > 0:
		result.addWarning(ValidationError{
			Type:    "no_discriminator",
			Entity:  entity.Name,
			Message: fmt.Sprintf("Entity '%s' has subtypes but no discriminator", entity.Name),
		})
	case d != nil && len(entity.SubTypes) == 0:
		result.addWarning(ValidationError{
			Type:    "unused_discriminator",
			Entity:  entity.Name,
			Message: fmt.Sprintf("Entity '%s' declares a discriminator but has no subtypes", entity.Name),
		})
	}
	if d != nil && d.IsFormula() && !d.HasPhysicalColumn() {
		result.addInfo(ValidationError{
			Type:    "formula_discriminator",
			Entity:  entity.Name,
			Message: fmt.Sprintf("Discriminator of '%s' is a formula and gets no column in the entity table", entity.Name),
		})
	}
}

func validatePart(entity *schema.Entity, path string, part schema.ModelPart, result *ValidationResult) {
	switch p := part.(type) {
	case *schema.BasicPart:
		if p.Mapping.Name == "" {
			result.addError(ValidationError{
				Type:      "data_type",
				Entity:    entity.Name,
				Attribute: path,
				Message:   fmt.Sprintf("Attribute '%s' has no scalar type", path),
			})
		}

	case *schema.EmbeddedPart:
		for _, child := range p.Attributes {
			validatePart(entity, path+"."+child.PartName(), child, result)
		}

	case *schema.AnyPart:
		validatePart(entity, path+"."+p.Discriminator.PartName(), p.Discriminator, result)
		validatePart(entity, path+"."+p.Key.PartName(), p.Key, result)

	case *schema.ToOnePart:
		validateAssociation(entity, path, p, result)

	case *schema.PluralPart:
		result.addInfo(ValidationError{
			Type:      "collection",
			Entity:    entity.Name,
			Attribute: path,
			Message:   fmt.Sprintf("Collection '%s' is not part of the entity table", path),
		})

	default:
		panic(fmt.Sprintf("unknown model part %T", part))
	}
}

func validateAssociation(entity *schema.Entity, path string, p *schema.ToOnePart, result *ValidationResult) {
	if p.Target == nil {
		result.addError(ValidationError{
			Type:      "association",
			Entity:    entity.Name,
			Attribute: path,
			Message:   fmt.Sprintf("Association '%s' has no target entity", path),
		})
		return
	}
	if p.Relation != schema.OneToOne && p.Relation != schema.ManyToOne {
		result.addError(ValidationError{
			Type:      "association",
			Entity:    entity.Name,
			Attribute: path,
			Message:   fmt.Sprintf("Association '%s' has relation %s; single-valued associations must be one-to-one or many-to-one", path, p.Relation),
		})
	}
	if p.ForeignKey == nil {
		result.addError(ValidationError{
			Type:      "foreign_key",
			Entity:    entity.Name,
			Attribute: path,
			Message:   fmt.Sprintf("Foreign key of '%s' is not resolved", path),
		})
		return
	}
	if p.IsInverse() {
		return
	}
	if want := p.ForeignKey.JdbcTypeCount(); len(p.ForeignKey.KeyColumns) != want {
		result.addError(ValidationError{
			Type:      "join_columns",
			Entity:    entity.Name,
			Attribute: path,
			Message: fmt.Sprintf("Association '%s' declares %d join columns but %s's identifier has %d",
				path, len(p.ForeignKey.KeyColumns), p.Target.Name, want),
		})
	}
}

// validateColumns builds the entity table and checks the flattened names.
func validateColumns(entity *schema.Entity, result *ValidationResult) {
	table, err := cte.CreateEntityTable(entity.Table, entity)
	if err != nil {
		result.addError(ValidationError{
			Type:    "entity_table",
			Entity:  entity.Name,
			Message: err.Error(),
		})
		return
	}

	seen := make(map[string]bool)
	for _, name := range table.ColumnNames() {
		if seen[name] {
			result.addError(ValidationError{
				Type:    "duplicate_column",
				Entity:  entity.Name,
				Column:  name,
				Message: fmt.Sprintf("Column '%s' appears more than once in the entity table of '%s'", name, entity.Name),
			})
			continue
		}
		seen[name] = true

		if len(name) > maxIdentifierLength {
			result.addWarning(ValidationError{
				Type:    "column_name",
				Entity:  entity.Name,
				Column:  name,
				Message: fmt.Sprintf("Column name '%s' is longer than %d characters and will be truncated", name, maxIdentifierLength),
			})
		} else if err := validateIdentifier("column", name); err != nil {
			result.addError(ValidationError{
				Type:    "column_name",
				Entity:  entity.Name,
				Column:  name,
				Message: err.Error(),
			})
		}
	}
}

// validateIdentifier checks PostgreSQL identifier rules for an unquoted name.
func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}

	if len(name) > maxIdentifierLength {
		return fmt.Errorf("%s name '%s' is too long (max %d characters)", kind, name, maxIdentifierLength)
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}

	reservedKeywords := []string{"user", "order", "group", "table", "index", "view", "schema"}
	for _, keyword := range reservedKeywords {
		if strings.ToLower(name) == keyword {
			return fmt.Errorf("%s name '%s' is a reserved keyword", kind, name)
		}
	}

	return nil
}
