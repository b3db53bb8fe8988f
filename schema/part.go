package schema

// ModelPart is a node of an entity's attribute tree. The set of variants is
// closed: BasicPart, ToOnePart, AnyPart, EmbeddedPart and PluralPart.
type ModelPart interface {
	PartName() string
	// JdbcTypeCount is the number of scalar columns the part expands to.
	JdbcTypeCount() int

	modelPart()
}

// BasicPart maps directly to a single column.
type BasicPart struct {
	Name    string
	Column  string
	Mapping JdbcMapping
}

// ToOnePart is a single-valued association to another entity.
type ToOnePart struct {
	Name        string
	Relation    RelationType
	Target      *Entity
	Declaring   *Entity
	Side        Nature
	ForeignKey  *ForeignKey // nil until resolved during bootstrap
	MappedBy    string
	JoinColumns []string
}

// AnyPart is a polymorphic reference stored as a discriminator plus a key.
type AnyPart struct {
	Name          string
	Discriminator ModelPart
	Key           ModelPart
}

// EmbeddedPart is a composite value whose attributes live in the owner's table.
type EmbeddedPart struct {
	Name       string
	Attributes []ModelPart
}

// PluralPart is a collection-valued attribute. It never contributes columns
// to the owner's table.
type PluralPart struct {
	Name     string
	Relation RelationType
	Element  string
}

func (p *BasicPart) PartName() string    { return p.Name }
func (p *ToOnePart) PartName() string    { return p.Name }
func (p *AnyPart) PartName() string      { return p.Name }
func (p *EmbeddedPart) PartName() string { return p.Name }
func (p *PluralPart) PartName() string   { return p.Name }

func (p *BasicPart) JdbcTypeCount() int { return 1 }

func (p *ToOnePart) JdbcTypeCount() int {
	if p.IsInverse() || p.ForeignKey == nil {
		return 0
	}
	return p.ForeignKey.JdbcTypeCount()
}

func (p *AnyPart) JdbcTypeCount() int {
	return p.Discriminator.JdbcTypeCount() + p.Key.JdbcTypeCount()
}

func (p *EmbeddedPart) JdbcTypeCount() int {
	count := 0
	for _, attr := range p.Attributes {
		count += attr.JdbcTypeCount()
	}
	return count
}

func (p *PluralPart) JdbcTypeCount() int { return 0 }

// IsInverse reports whether this association is the non-owning side of its
// foreign key.
func (p *ToOnePart) IsInverse() bool {
	return p.Side != SideKey
}

// TargetPart returns the part the association's key columns reference: the
// foreign key's target when resolved, the target entity's identifier otherwise.
func (p *ToOnePart) TargetPart() ModelPart {
	if p.ForeignKey != nil && p.ForeignKey.TargetPart != nil {
		return p.ForeignKey.TargetPart
	}
	if p.Target != nil && p.Target.Identifier != nil {
		return p.Target.Identifier.Part
	}
	return nil
}

func (*BasicPart) modelPart()    {}
func (*ToOnePart) modelPart()    {}
func (*AnyPart) modelPart()      {}
func (*EmbeddedPart) modelPart() {}
func (*PluralPart) modelPart()   {}
