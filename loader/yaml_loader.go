package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ridoystarlord/cteshape/bootstrap"
	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/schema"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Name          string             `yaml:"name"`
	Table         string             `yaml:"table"`
	Extends       string             `yaml:"extends"`
	ID            *yamlAttribute     `yaml:"id"`
	Discriminator *yamlDiscriminator `yaml:"discriminator"`
	Attributes    []yamlAttribute    `yaml:"attributes"`
}

type yamlDiscriminator struct {
	Column  string `yaml:"column"`
	Formula string `yaml:"formula"`
	Type    string `yaml:"type"`
}

type yamlAttribute struct {
	Name          string          `yaml:"name"`
	Kind          string          `yaml:"kind"`
	Type          string          `yaml:"type"`
	Column        string          `yaml:"column"`
	Target        string          `yaml:"target"`
	Relation      string          `yaml:"relation"`
	MappedBy      string          `yaml:"mapped_by"`
	JoinColumns   []string        `yaml:"join_columns"`
	Attributes    []yamlAttribute `yaml:"attributes"`
	Discriminator *yamlAttribute  `yaml:"discriminator"`
	Key           *yamlAttribute  `yaml:"key"`
}

// Attribute kinds accepted in mapping documents.
const (
	KindBasic    = "basic"
	KindEmbedded = "embedded"
	KindToOne    = "to-one"
	KindAny      = "any"
	KindPlural   = "plural"
)

// LoadMetamodelFromYAML reads a mapping document into a metamodel. Foreign
// keys are left unresolved; a resolver callback per association is queued on
// process and must run before tables can be built.
func LoadMetamodelFromYAML(filename string, process *bootstrap.Process) (*schema.Metamodel, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}
	return ParseMetamodel(data, process)
}

// ParseMetamodel is LoadMetamodelFromYAML for an in-memory document.
func ParseMetamodel(data []byte, process *bootstrap.Process) (*schema.Metamodel, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	b := &builder{
		metamodel: schema.NewMetamodel(),
		process:   process,
	}
	return b.build(yf)
}

type builder struct {
	metamodel *schema.Metamodel
	process   *bootstrap.Process
	toOnes    []*schema.ToOnePart
}

func (b *builder) build(yf yamlFile) (*schema.Metamodel, error) {
	for _, ye := range yf.Entities {
		if ye.Name == "" {
			return nil, fmt.Errorf("entity without a name")
		}
		entity := &schema.Entity{
			Name:  ye.Name,
			Table: ye.Table,
		}
		if entity.Table == "" {
			entity.Table = strings.ToLower(ye.Name)
		}
		if err := b.metamodel.Add(entity); err != nil {
			return nil, err
		}
	}

	for _, ye := range yf.Entities {
		entity := b.metamodel.Entity(ye.Name)
		if ye.Extends != "" {
			super := b.metamodel.Entity(ye.Extends)
			if super == nil {
				return nil, fmt.Errorf("entity %s extends unknown entity %s", ye.Name, ye.Extends)
			}
			entity.SuperType = super
			super.SubTypes = append(super.SubTypes, entity)
		}

		if ye.ID != nil {
			id, err := b.identifier(entity, *ye.ID)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", ye.Name, err)
			}
			entity.Identifier = id
		}

		if ye.Discriminator != nil {
			d, err := discriminator(*ye.Discriminator)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", ye.Name, err)
			}
			entity.Discriminator = d
		}

		for _, ya := range ye.Attributes {
			part, err := b.attribute(entity, ya)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", ye.Name, err)
			}
			entity.Attributes = append(entity.Attributes, part)
		}
	}

	for _, entity := range b.metamodel.Entities() {
		if err := checkHierarchy(entity); err != nil {
			return nil, err
		}
		root := entity.Root()
		if entity.Identifier == nil {
			if root.Identifier == nil {
				return nil, fmt.Errorf("entity %s has no identifier", entity.Name)
			}
			entity.Identifier = root.Identifier
		}
		if entity.Discriminator == nil {
			entity.Discriminator = root.Discriminator
		}
	}

	for _, p := range b.toOnes {
		b.registerForeignKey(p)
	}
	return b.metamodel, nil
}

func (b *builder) identifier(entity *schema.Entity, ya yamlAttribute) (*schema.Identifier, error) {
	if ya.Name == "" {
		if len(ya.Attributes) == 0 {
			return nil, fmt.Errorf("identifier needs a name or attributes")
		}
		// non-aggregated composite id
		ya.Name = "id"
		ya.Kind = KindEmbedded
		part, err := b.attribute(entity, ya)
		if err != nil {
			return nil, fmt.Errorf("identifier: %w", err)
		}
		return &schema.Identifier{Part: part}, nil
	}
	part, err := b.attribute(entity, ya)
	if err != nil {
		return nil, fmt.Errorf("identifier: %w", err)
	}
	if _, plural := part.(*schema.PluralPart); plural {
		return nil, fmt.Errorf("identifier %s cannot be a collection", ya.Name)
	}
	return &schema.Identifier{Attribute: ya.Name, Part: part}, nil
}

func discriminator(yd yamlDiscriminator) (*schema.Discriminator, error) {
	typeName := yd.Type
	if typeName == "" {
		typeName = "varchar"
	}
	mapping, ok := schema.LookupMapping(typeName)
	if !ok {
		return nil, fmt.Errorf("discriminator: unknown type %q", yd.Type)
	}
	if yd.Column == "" && yd.Formula == "" {
		yd.Column = "dtype"
	}
	return &schema.Discriminator{
		Part:    &schema.BasicPart{Name: "class", Column: yd.Column, Mapping: mapping},
		Formula: yd.Formula,
	}, nil
}

func kindOf(ya yamlAttribute) string {
	if ya.Kind != "" {
		return strings.ToLower(ya.Kind)
	}
	switch {
	case len(ya.Attributes) > 0:
		return KindEmbedded
	case ya.Discriminator != nil || ya.Key != nil:
		return KindAny
	case ya.Relation == string(schema.OneToMany) || ya.Relation == string(schema.ManyToMany):
		return KindPlural
	case ya.Target != "":
		return KindToOne
	default:
		return KindBasic
	}
}

func (b *builder) attribute(entity *schema.Entity, ya yamlAttribute) (schema.ModelPart, error) {
	if ya.Name == "" {
		return nil, fmt.Errorf("attribute without a name")
	}

	switch kindOf(ya) {
	case KindBasic:
		mapping, ok := schema.LookupMapping(ya.Type)
		if !ok {
			return nil, fmt.Errorf("attribute %s: unknown type %q", ya.Name, ya.Type)
		}
		column := ya.Column
		if column == "" {
			column = ya.Name
		}
		return &schema.BasicPart{Name: ya.Name, Column: column, Mapping: mapping}, nil

	case KindEmbedded:
		if len(ya.Attributes) == 0 {
			return nil, fmt.Errorf("embedded attribute %s has no attributes", ya.Name)
		}
		embedded := &schema.EmbeddedPart{Name: ya.Name}
		for _, child := range ya.Attributes {
			part, err := b.attribute(entity, child)
			if err != nil {
				return nil, fmt.Errorf("%s.%w", ya.Name, err)
			}
			embedded.Attributes = append(embedded.Attributes, part)
		}
		return embedded, nil

	case KindToOne:
		target := b.metamodel.Entity(ya.Target)
		if target == nil {
			return nil, fmt.Errorf("attribute %s: unknown target entity %q", ya.Name, ya.Target)
		}
		relation := schema.RelationType(ya.Relation)
		if relation == "" {
			relation = schema.ManyToOne
		}
		side := schema.SideKey
		if ya.MappedBy != "" {
			side = schema.SideTarget
		}
		part := &schema.ToOnePart{
			Name:        ya.Name,
			Relation:    relation,
			Target:      target,
			Declaring:   entity,
			Side:        side,
			MappedBy:    ya.MappedBy,
			JoinColumns: ya.JoinColumns,
		}
		b.toOnes = append(b.toOnes, part)
		return part, nil

	case KindAny:
		if ya.Discriminator == nil || ya.Key == nil {
			return nil, fmt.Errorf("any attribute %s needs discriminator and key", ya.Name)
		}
		disc, err := b.attribute(entity, withDefaultName(*ya.Discriminator, "discriminator"))
		if err != nil {
			return nil, fmt.Errorf("%s.%w", ya.Name, err)
		}
		key, err := b.attribute(entity, withDefaultName(*ya.Key, "key"))
		if err != nil {
			return nil, fmt.Errorf("%s.%w", ya.Name, err)
		}
		return &schema.AnyPart{Name: ya.Name, Discriminator: disc, Key: key}, nil

	case KindPlural:
		element := ya.Target
		if element == "" {
			element = ya.Type
		}
		relation := schema.RelationType(ya.Relation)
		if relation == "" {
			relation = schema.OneToMany
		}
		return &schema.PluralPart{Name: ya.Name, Relation: relation, Element: element}, nil

	default:
		return nil, fmt.Errorf("attribute %s: unknown kind %q", ya.Name, ya.Kind)
	}
}

func withDefaultName(ya yamlAttribute, name string) yamlAttribute {
	if ya.Name == "" {
		ya.Name = name
	}
	return ya
}

func checkHierarchy(entity *schema.Entity) error {
	seen := map[*schema.Entity]bool{}
	for e := entity; e != nil; e = e.SuperType {
		if seen[e] {
			return fmt.Errorf("entity %s has a cyclic inheritance hierarchy", entity.Name)
		}
		seen[e] = true
	}
	return nil
}

// registerForeignKey queues resolution of p's foreign key. A key side waits
// for the target identifier to be fully resolved; an inverse side waits for
// the owning association's foreign key.
func (b *builder) registerForeignKey(p *schema.ToOnePart) {
	name := fmt.Sprintf("foreign key %s.%s", p.Declaring.Name, p.Name)
	b.process.Register(name, func(ctx context.Context) error {
		if p.IsInverse() {
			return resolveInverse(p)
		}
		return resolveKey(p)
	})
}

func resolveKey(p *schema.ToOnePart) error {
	target := p.Target
	targetPart := target.Identifier.Part
	if unresolved := findUnresolved(targetPart); unresolved != nil {
		return &cte.MetadataNotReadyError{Entity: declaringName(unresolved), Attribute: unresolved.Name}
	}
	keyColumns := p.JoinColumns
	if len(keyColumns) == 0 {
		keyColumns = defaultJoinColumns(p.Name, targetPart)
	}
	p.ForeignKey = &schema.ForeignKey{
		KeyTable:    p.Declaring.Root().Table,
		TargetTable: target.Root().Table,
		KeyColumns:  keyColumns,
		TargetPart:  targetPart,
	}
	return nil
}

func resolveInverse(p *schema.ToOnePart) error {
	owner, ok := p.Target.Attribute(p.MappedBy).(*schema.ToOnePart)
	if !ok {
		return fmt.Errorf("%s.%s: mapped_by %q is not an association on %s",
			p.Declaring.Name, p.Name, p.MappedBy, p.Target.Name)
	}
	if owner.ForeignKey == nil {
		return &cte.MetadataNotReadyError{Entity: p.Target.Name, Attribute: owner.Name}
	}
	p.ForeignKey = owner.ForeignKey
	return nil
}

// findUnresolved returns the first owning association below part whose
// foreign key is still missing.
func findUnresolved(part schema.ModelPart) *schema.ToOnePart {
	switch p := part.(type) {
	case *schema.ToOnePart:
		if p.ForeignKey == nil {
			return p
		}
		if !p.IsInverse() {
			return findUnresolved(p.TargetPart())
		}
	case *schema.EmbeddedPart:
		for _, attr := range p.Attributes {
			if u := findUnresolved(attr); u != nil {
				return u
			}
		}
	case *schema.AnyPart:
		if u := findUnresolved(p.Discriminator); u != nil {
			return u
		}
		return findUnresolved(p.Key)
	}
	return nil
}

func defaultJoinColumns(prefix string, target schema.ModelPart) []string {
	columns, err := cte.CollectColumns(prefix+"_"+target.PartName(), target)
	if err != nil {
		return nil
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

func declaringName(p *schema.ToOnePart) string {
	if p.Declaring == nil {
		return ""
	}
	return p.Declaring.Name
}
