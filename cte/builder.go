package cte

import (
	"github.com/ridoystarlord/cteshape/schema"
)

const (
	// RowNumberColumn is the synthetic column used to join result rows back
	// to their source rows.
	RowNumberColumn = "rn_"

	discriminatorPrefix = "class"
	compositeIDName     = "id"
)

// CreateIDTable builds a table holding only the entity's identifier columns.
func CreateIDTable(name string, entity *schema.Entity) (*Table, error) {
	columns := make([]Column, 0, entity.Identifier.JdbcTypeCount())
	sink := func(c Column) { columns = append(columns, c) }
	if err := ForEachColumn(identifierName(entity.Identifier), entity.Identifier.Part, sink); err != nil {
		return nil, err
	}
	return NewTable(name, columns), nil
}

// CreateEntityTable builds a table mirroring the entity: identifier, physical
// discriminator, every non-collection attribute across the subtype hierarchy
// and a trailing row number column.
func CreateEntityTable(name string, entity *schema.Entity) (*Table, error) {
	columns := make([]Column, 0, entity.Identifier.JdbcTypeCount())
	sink := func(c Column) { columns = append(columns, c) }
	if err := ForEachColumn(identifierName(entity.Identifier), entity.Identifier.Part, sink); err != nil {
		return nil, err
	}

	if d := entity.Discriminator; d.IsPhysical() {
		if err := ForEachColumn(discriminatorPrefix, d.Part, sink); err != nil {
			return nil, err
		}
	}

	var err error
	entity.VisitSubTypeAttributes(func(attr schema.ModelPart) {
		if err != nil {
			return
		}
		if _, plural := attr.(*schema.PluralPart); plural {
			return
		}
		err = ForEachColumn(attr.PartName(), attr, sink)
	})
	if err != nil {
		return nil, err
	}

	columns = append(columns, Column{Name: RowNumberColumn, Mapping: schema.Integer})
	return NewTable(name, columns), nil
}

func identifierName(id *schema.Identifier) string {
	if id.IsSingleAttribute() {
		return id.Attribute
	}
	return compositeIDName
}
