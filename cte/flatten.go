package cte

import (
	"fmt"

	"github.com/ridoystarlord/cteshape/schema"
)

// ForEachColumn expands part into its scalar columns, passing each to sink in
// traversal order. Column names are the underscore-joined path from prefix
// down to the scalar leaf.
//
// An association whose foreign key is not resolved yet yields a
// *MetadataNotReadyError; columns already passed to sink must be discarded
// by the caller.
func ForEachColumn(prefix string, part schema.ModelPart, sink func(Column)) error {
	switch p := part.(type) {
	case *schema.BasicPart:
		sink(Column{Name: prefix, Mapping: p.Mapping})
	case *schema.ToOnePart:
		if p.ForeignKey == nil {
			return notReady(p)
		}
		// inverse one-to-one receives no column
		if p.IsInverse() {
			return nil
		}
		target := p.TargetPart()
		return ForEachColumn(prefix+"_"+target.PartName(), target, sink)
	case *schema.AnyPart:
		if err := ForEachColumn(prefix+"_discriminator", p.Discriminator, sink); err != nil {
			return err
		}
		return ForEachColumn(prefix+"_key", p.Key, sink)
	case *schema.EmbeddedPart:
		for _, attr := range p.Attributes {
			if _, plural := attr.(*schema.PluralPart); plural {
				continue
			}
			if err := ForEachColumn(prefix+"_"+attr.PartName(), attr, sink); err != nil {
				return err
			}
		}
	case *schema.PluralPart:
		// collections are not part of the shape
	default:
		panic(fmt.Sprintf("cte: unexpected model part %T", part))
	}
	return nil
}

// CollectColumns is ForEachColumn gathering into a slice.
func CollectColumns(prefix string, part schema.ModelPart) ([]Column, error) {
	var columns []Column
	err := ForEachColumn(prefix, part, func(c Column) {
		columns = append(columns, c)
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func notReady(p *schema.ToOnePart) error {
	entity := ""
	if p.Declaring != nil {
		entity = p.Declaring.Name
	}
	return &MetadataNotReadyError{Entity: entity, Attribute: p.Name}
}
