package cte

import (
	"fmt"

	"github.com/ridoystarlord/cteshape/schema"
)

// TupleEntry is one selected item of a derived query, exposed under Alias.
type TupleEntry struct {
	Alias string
	Part  schema.ModelPart
}

// TupleShape is a ShapeProducer for an ad-hoc tuple of model parts, such as
// the select list of a recursive CTE.
type TupleShape struct {
	entries []TupleEntry
}

// NewTupleShape returns a shape over a copy of entries, in order.
func NewTupleShape(entries ...TupleEntry) *TupleShape {
	owned := make([]TupleEntry, len(entries))
	copy(owned, entries)
	return &TupleShape{entries: owned}
}

// DetermineColumns flattens every entry, each prefixed by its alias.
func (s *TupleShape) DetermineColumns() ([]Column, error) {
	var columns []Column
	for _, e := range s.entries {
		err := ForEachColumn(e.Alias, e.Part, func(c Column) {
			columns = append(columns, c)
		})
		if err != nil {
			return nil, fmt.Errorf("tuple entry %s: %w", e.Alias, err)
		}
	}
	return columns, nil
}

// ColumnRange returns the half-open column range [start, end) that the entry
// aliased alias occupies in DetermineColumns' result.
func (s *TupleShape) ColumnRange(alias string) (start, end int, err error) {
	offset := 0
	for _, e := range s.entries {
		pos, err := walk(offset, e.Part, nil)
		if err != nil {
			return 0, 0, err
		}
		if e.Alias == alias {
			return offset, pos.offset, nil
		}
		offset = pos.offset
	}
	return 0, 0, fmt.Errorf("%w: alias %s", ErrModelPartNotFound, alias)
}
