package cte

import (
	"fmt"

	"github.com/ridoystarlord/cteshape/schema"
)

// position is the outcome of walking one part: either the target was found
// at offset, or the walk continues from offset.
type position struct {
	offset int
	found  bool
}

// ModelPartStartIndex returns the index of the first column of part within
// the table built by CreateEntityTable for entity. It returns
// ErrModelPartNotFound when part does not contribute to that table.
func ModelPartStartIndex(entity *schema.Entity, part schema.ModelPart) (int, error) {
	identifier := entity.Identifier
	if part == identifier.Part {
		return 0, nil
	}
	offset := identifier.JdbcTypeCount()

	if d := entity.Discriminator; d.IsPhysical() {
		if part == schema.ModelPart(d.Part) {
			return offset, nil
		}
		offset += d.Part.JdbcTypeCount()
	}

	var (
		pos = position{offset: offset}
		err error
	)
	entity.VisitSubTypeAttributes(func(attr schema.ModelPart) {
		if err != nil || pos.found {
			return
		}
		if _, plural := attr.(*schema.PluralPart); plural {
			return
		}
		pos, err = walk(pos.offset, attr, part)
	})
	if err != nil {
		return 0, err
	}
	if !pos.found {
		return 0, fmt.Errorf("%w: %s in %s", ErrModelPartNotFound, part.PartName(), entity.Name)
	}
	return pos.offset, nil
}

// walk advances offset past part the same way ForEachColumn expands it.
// A nil target never matches and only measures the part.
func walk(offset int, part, target schema.ModelPart) (position, error) {
	if target != nil && part == target {
		return position{offset: offset, found: true}, nil
	}
	switch p := part.(type) {
	case *schema.BasicPart:
		return position{offset: offset + 1}, nil
	case *schema.ToOnePart:
		if p.ForeignKey == nil {
			return position{}, notReady(p)
		}
		if p.IsInverse() {
			return position{offset: offset}, nil
		}
		// key columns belong to this association, not to the referenced entity
		return walk(offset, p.TargetPart(), nil)
	case *schema.AnyPart:
		pos, err := walk(offset, p.Discriminator, target)
		if err != nil || pos.found {
			return pos, err
		}
		return walk(pos.offset, p.Key, target)
	case *schema.EmbeddedPart:
		pos := position{offset: offset}
		for _, attr := range p.Attributes {
			if _, plural := attr.(*schema.PluralPart); plural {
				continue
			}
			var err error
			if pos, err = walk(pos.offset, attr, target); err != nil || pos.found {
				return pos, err
			}
		}
		return pos, nil
	case *schema.PluralPart:
		return position{offset: offset}, nil
	default:
		panic(fmt.Sprintf("cte: unexpected model part %T", part))
	}
}
