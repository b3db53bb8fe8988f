package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Entity describes a mapped entity: its identifier, optional discriminator
// and its declared attributes. Subtypes are linked through SuperType/SubTypes.
type Entity struct {
	Name          string
	Table         string
	Identifier    *Identifier
	Discriminator *Discriminator
	Attributes    []ModelPart
	SuperType     *Entity
	SubTypes      []*Entity
}

// Identifier is the entity id mapping. Attribute is set when the id is a
// single named attribute; composite (non-aggregated) ids leave it empty.
type Identifier struct {
	Attribute string
	Part      ModelPart
}

// Discriminator describes the value distinguishing subtypes in a hierarchy.
// Part.Column is empty when the value has no column of its own.
type Discriminator struct {
	Part    *BasicPart
	Formula string
}

type Nature int

const (
	SideKey Nature = iota
	SideTarget
)

func (n Nature) String() string {
	if n == SideKey {
		return "key"
	}
	return "target"
}

type RelationType string

const (
	OneToOne   RelationType = "one-to-one"
	ManyToOne  RelationType = "many-to-one"
	OneToMany  RelationType = "one-to-many"
	ManyToMany RelationType = "many-to-many"
)

// ForeignKey links the owning (key) side of an association to the part it references.
type ForeignKey struct {
	KeyTable    string
	TargetTable string
	KeyColumns  []string
	TargetPart  ModelPart
}

// JdbcTypeCount is the number of key columns, equal to the referenced part's.
func (fk *ForeignKey) JdbcTypeCount() int {
	if fk.TargetPart == nil {
		return 0
	}
	return fk.TargetPart.JdbcTypeCount()
}

// IsSingleAttribute reports whether the identifier is one named attribute.
func (id *Identifier) IsSingleAttribute() bool {
	return id.Attribute != ""
}

// JdbcTypeCount returns the number of scalar columns making up the identifier.
func (id *Identifier) JdbcTypeCount() int {
	return id.Part.JdbcTypeCount()
}

// HasPhysicalColumn reports whether the discriminator maps to a real column.
func (d *Discriminator) HasPhysicalColumn() bool {
	return d.Part != nil && d.Part.Column != ""
}

// IsFormula reports whether the discriminator value is derived from a formula.
func (d *Discriminator) IsFormula() bool {
	return d.Formula != ""
}

// IsPhysical reports whether the discriminator occupies a column of its own.
func (d *Discriminator) IsPhysical() bool {
	return d != nil && d.HasPhysicalColumn() && !d.IsFormula()
}

// Root returns the root of the entity's inheritance hierarchy.
func (e *Entity) Root() *Entity {
	root := e
	for root.SuperType != nil {
		root = root.SuperType
	}
	return root
}

// Attribute finds a declared attribute by name, searching supertypes as well.
func (e *Entity) Attribute(name string) ModelPart {
	for ent := e; ent != nil; ent = ent.SuperType {
		for _, attr := range ent.Attributes {
			if attr.PartName() == name {
				return attr
			}
		}
	}
	return nil
}

// FindPart resolves a dotted path such as "address.city" to a part of the
// entity's table. The first segment may name the identifier, "class" for the
// discriminator, or any attribute of the hierarchy in the order
// VisitSubTypeAttributes visits them. Associations are not followed into
// their targets.
func (e *Entity) FindPart(path string) ModelPart {
	segments := strings.Split(path, ".")
	var part ModelPart
	switch first := segments[0]; {
	case e.Identifier != nil && (first == e.Identifier.Attribute || (!e.Identifier.IsSingleAttribute() && first == e.Identifier.Part.PartName())):
		part = e.Identifier.Part
	case first == "class" && e.Discriminator != nil && e.Discriminator.Part != nil:
		part = e.Discriminator.Part
	default:
		part = e.hierarchyAttribute(first)
	}

	for _, name := range segments[1:] {
		switch p := part.(type) {
		case *EmbeddedPart:
			part = nil
			for _, attr := range p.Attributes {
				if attr.PartName() == name {
					part = attr
					break
				}
			}
		case *AnyPart:
			switch name {
			case "discriminator", p.Discriminator.PartName():
				part = p.Discriminator
			case "key", p.Key.PartName():
				part = p.Key
			default:
				part = nil
			}
		default:
			return nil
		}
	}
	return part
}

// VisitSubTypeAttributes calls fn for every attribute of the entity's table:
// inherited attributes root first, then the entity's own, then depth-first in
// declared order the attributes of every subtype.
func (e *Entity) VisitSubTypeAttributes(fn func(ModelPart)) {
	var supers []*Entity
	for s := e.SuperType; s != nil; s = s.SuperType {
		supers = append(supers, s)
	}
	for i := len(supers) - 1; i >= 0; i-- {
		for _, attr := range supers[i].Attributes {
			fn(attr)
		}
	}
	e.visitDeclared(fn)
}

func (e *Entity) visitDeclared(fn func(ModelPart)) {
	for _, attr := range e.Attributes {
		fn(attr)
	}
	for _, sub := range e.SubTypes {
		sub.visitDeclared(fn)
	}
}

// hierarchyAttribute returns the first attribute named name in
// VisitSubTypeAttributes order.
func (e *Entity) hierarchyAttribute(name string) ModelPart {
	var found ModelPart
	e.VisitSubTypeAttributes(func(attr ModelPart) {
		if found == nil && attr.PartName() == name {
			found = attr
		}
	})
	return found
}

// QualifiedName returns "Entity.attribute" for diagnostics.
func (e *Entity) QualifiedName(part ModelPart) string {
	if e == nil {
		return part.PartName()
	}
	return fmt.Sprintf("%s.%s", e.Name, part.PartName())
}

// Metamodel is the registry of all mapped entities.
type Metamodel struct {
	entities map[string]*Entity
}

func NewMetamodel() *Metamodel {
	return &Metamodel{entities: make(map[string]*Entity)}
}

// Add registers an entity, failing on duplicate names.
func (m *Metamodel) Add(e *Entity) error {
	if _, ok := m.entities[e.Name]; ok {
		return fmt.Errorf("entity %q already registered", e.Name)
	}
	m.entities[e.Name] = e
	return nil
}

// Entity returns the entity registered under name, or nil.
func (m *Metamodel) Entity(name string) *Entity {
	return m.entities[name]
}

// Entities returns all entities sorted by name.
func (m *Metamodel) Entities() []*Entity {
	result := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
