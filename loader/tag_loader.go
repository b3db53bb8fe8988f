package loader

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/ridoystarlord/cteshape/bootstrap"
	"github.com/ridoystarlord/cteshape/schema"
)

const tagKey = "cteshape"

// TagLoader loads entity mappings from Go structs with cteshape tags.
//
// Only tagged fields are mapped. A struct with an "id" field, or one that
// embeds another entity, is an entity; any other struct referenced from a
// tagged field is an embeddable value. A blank field carries entity level
// settings:
//
//	_ struct{} `cteshape:"table:vehicles;discriminator:dtype"`
type TagLoader struct {
	modelsDir string
}

// NewTagLoader creates a new tag loader
func NewTagLoader(modelsDir string) *TagLoader {
	return &TagLoader{
		modelsDir: modelsDir,
	}
}

// LoadMetamodelFromTags reads every struct under modelsDir into a metamodel.
// Foreign keys are queued on process like LoadMetamodelFromYAML does.
func LoadMetamodelFromTags(modelsDir string, process *bootstrap.Process) (*schema.Metamodel, error) {
	return NewTagLoader(modelsDir).Load(process)
}

// Load loads all models from the models directory
func (tl *TagLoader) Load(process *bootstrap.Process) (*schema.Metamodel, error) {
	if _, err := os.Stat(tl.modelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("models directory '%s' does not exist", tl.modelsDir)
	}

	var structs []structDecl
	err := filepath.Walk(tl.modelsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fileStructs, err := tl.parseGoFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		structs = append(structs, fileStructs...)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	yf, err := tl.document(structs)
	if err != nil {
		return nil, err
	}

	b := &builder{
		metamodel: schema.NewMetamodel(),
		process:   process,
	}
	return b.build(yf)
}

type structDecl struct {
	name   string
	fields []*ast.Field
}

// parseGoFile parses a single Go file and extracts struct declarations
func (tl *TagLoader) parseGoFile(filePath string) ([]structDecl, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file: %w", err)
	}

	var structs []structDecl
	ast.Inspect(node, func(n ast.Node) bool {
		if x, ok := n.(*ast.TypeSpec); ok {
			if structType, ok := x.Type.(*ast.StructType); ok {
				structs = append(structs, structDecl{name: x.Name.Name, fields: structType.Fields.List})
			}
		}
		return true
	})

	return structs, nil
}

// document converts the parsed structs into the same intermediate form the
// YAML loader reads, so both sources share one builder.
func (tl *TagLoader) document(structs []structDecl) (yamlFile, error) {
	byName := make(map[string]structDecl, len(structs))
	for _, s := range structs {
		if _, dup := byName[s.name]; dup {
			return yamlFile{}, fmt.Errorf("struct %s declared more than once", s.name)
		}
		byName[s.name] = s
	}

	entities := make(map[string]bool)
	for _, s := range structs {
		if tl.isEntity(s, byName) {
			entities[s.name] = true
		}
	}

	var yf yamlFile
	for _, s := range structs {
		if !entities[s.name] {
			continue
		}
		ye, err := tl.entity(s, byName, entities)
		if err != nil {
			return yamlFile{}, fmt.Errorf("struct %s: %w", s.name, err)
		}
		yf.Entities = append(yf.Entities, ye)
	}
	if len(yf.Entities) == 0 {
		return yamlFile{}, fmt.Errorf("no entities found in %s", tl.modelsDir)
	}
	return yf, nil
}

func (tl *TagLoader) isEntity(s structDecl, byName map[string]structDecl) bool {
	for _, field := range s.fields {
		if len(field.Names) == 0 {
			if super, ok := byName[tl.getFieldType(field.Type)]; ok && tl.isEntity(super, byName) {
				return true
			}
			continue
		}
		if tag := tl.parseTag(field.Tag); tag != nil && tag.ID {
			return true
		}
	}
	return false
}

func (tl *TagLoader) entity(s structDecl, byName map[string]structDecl, entities map[string]bool) (yamlEntity, error) {
	ye := yamlEntity{Name: s.name, Table: tl.getTableName(s.name)}

	var ids []yamlAttribute
	for _, field := range s.fields {
		if len(field.Names) == 0 {
			if super := tl.getFieldType(field.Type); entities[super] {
				if ye.Extends != "" {
					return ye, fmt.Errorf("embeds both %s and %s", ye.Extends, super)
				}
				ye.Extends = super
			}
			continue
		}

		tag := tl.parseTag(field.Tag)
		if tag == nil {
			continue
		}

		if field.Names[0].Name == "_" {
			tl.applyEntityTag(&ye, tag)
			continue
		}

		if !ast.IsExported(field.Names[0].Name) {
			continue
		}

		attr, err := tl.attribute(field.Names[0].Name, field.Type, tag, byName, entities, nil)
		if err != nil {
			return ye, err
		}
		if tag.ID {
			ids = append(ids, attr)
			continue
		}
		ye.Attributes = append(ye.Attributes, attr)
	}

	switch len(ids) {
	case 0:
	case 1:
		ye.ID = &ids[0]
	default:
		ye.ID = &yamlAttribute{Attributes: ids}
	}
	return ye, nil
}

func (tl *TagLoader) applyEntityTag(ye *yamlEntity, tag *FieldTag) {
	if tag.Table != "" {
		ye.Table = tag.Table
	}
	if tag.Discriminator != "" || tag.Formula != "" {
		ye.Discriminator = &yamlDiscriminator{
			Column:  tag.Discriminator,
			Formula: tag.Formula,
			Type:    tag.DataType,
		}
	}
}

// attribute converts one tagged field. seen guards against embeddable
// values that contain themselves.
func (tl *TagLoader) attribute(fieldName string, expr ast.Expr, tag *FieldTag, byName map[string]structDecl, entities map[string]bool, seen map[string]bool) (yamlAttribute, error) {
	fieldType := tl.getFieldType(expr)
	elem := strings.TrimPrefix(fieldType, "[]")

	attr := yamlAttribute{
		Name:        tl.attributeName(fieldName),
		Kind:        tag.Kind,
		Type:        tag.DataType,
		Column:      tag.ColumnName,
		Target:      tag.Target,
		Relation:    tag.Relation,
		MappedBy:    tag.MappedBy,
		JoinColumns: tag.JoinColumns,
	}
	if attr.Column == "" {
		attr.Column = tl.toSnakeCase(fieldName)
	}

	switch {
	case tag.AnyDiscriminator != "" || tag.AnyKey != "":
		attr.Kind = KindAny
		attr.Discriminator = &yamlAttribute{Name: "discriminator", Type: tag.AnyDiscriminator, Column: attr.Column + "_type"}
		attr.Key = &yamlAttribute{Name: "key", Type: tag.AnyKey, Column: attr.Column + "_id"}

	case entities[elem]:
		if attr.Target == "" {
			attr.Target = elem
		}
		if strings.HasPrefix(fieldType, "[]") {
			attr.Kind = KindPlural
			if attr.Relation == "" {
				attr.Relation = string(schema.OneToMany)
			}
		} else if attr.Kind == "" {
			attr.Kind = KindToOne
		}

	case strings.HasPrefix(fieldType, "[]") && fieldType != "[]byte":
		attr.Kind = KindPlural
		if attr.Type == "" {
			attr.Type = tl.inferDataType(elem)
		}

	default:
		if embeddable, ok := byName[fieldType]; ok && attr.Target == "" {
			if seen[fieldType] {
				return attr, fmt.Errorf("embeddable %s contains itself", fieldType)
			}
			nested := map[string]bool{fieldType: true}
			for k := range seen {
				nested[k] = true
			}
			attr.Kind = KindEmbedded
			for _, field := range embeddable.fields {
				if len(field.Names) == 0 || !ast.IsExported(field.Names[0].Name) {
					continue
				}
				childTag := tl.parseTag(field.Tag)
				if childTag == nil {
					continue
				}
				child, err := tl.attribute(field.Names[0].Name, field.Type, childTag, byName, entities, nested)
				if err != nil {
					return attr, fmt.Errorf("%s.%w", attr.Name, err)
				}
				attr.Attributes = append(attr.Attributes, child)
			}
			break
		}
		if attr.Type == "" && attr.Target == "" {
			attr.Type = tl.inferDataType(fieldType)
		}
	}
	return attr, nil
}

// parseTag returns the parsed cteshape tag, or nil when the field has none
// or is marked "-".
func (tl *TagLoader) parseTag(tag *ast.BasicLit) *FieldTag {
	if tag == nil {
		return nil
	}

	tagValue := strings.Trim(tag.Value, "`")
	value, ok := reflect.StructTag(tagValue).Lookup(tagKey)
	if !ok || value == "-" {
		return nil
	}
	return tl.parseFieldTag(value)
}

// parseFieldTag parses a tag value such as "id;type:bigint;column:order_id".
func (tl *TagLoader) parseFieldTag(value string) *FieldTag {
	tag := &FieldTag{}

	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if key, val, ok := strings.Cut(part, ":"); ok {
			key = strings.TrimSpace(key)
			val = strings.TrimSpace(val)

			switch key {
			case "column":
				tag.ColumnName = val
			case "type":
				tag.DataType = val
			case "kind":
				tag.Kind = val
			case "target":
				tag.Target = val
			case "relation":
				tag.Relation = val
			case "mapped_by":
				tag.MappedBy = val
			case "join":
				for _, c := range strings.Split(val, ",") {
					if c = strings.TrimSpace(c); c != "" {
						tag.JoinColumns = append(tag.JoinColumns, c)
					}
				}
			case "any":
				tag.AnyDiscriminator, tag.AnyKey, _ = strings.Cut(val, ",")
			case "table":
				tag.Table = val
			case "discriminator":
				tag.Discriminator = val
			case "formula":
				tag.Formula = val
			}
			continue
		}

		switch part {
		case "id":
			tag.ID = true
		case "embedded":
			tag.Kind = KindEmbedded
		case "discriminator":
			tag.Discriminator = "dtype"
		}
	}

	return tag
}

// getFieldType extracts the Go type name from an ast.Expr
func (tl *TagLoader) getFieldType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return tl.getFieldType(t.X)
	case *ast.ArrayType:
		return "[]" + tl.getFieldType(t.Elt)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
	}
	return ""
}

// getTableName converts struct name to table name
func (tl *TagLoader) getTableName(structName string) string {
	tableName := tl.toSnakeCase(structName)

	if strings.HasSuffix(tableName, "y") {
		tableName = strings.TrimSuffix(tableName, "y") + "ies"
	} else if !strings.HasSuffix(tableName, "s") {
		tableName += "s"
	}

	return tableName
}

var goTypeMappings = map[string]string{
	"int":       "integer",
	"int32":     "integer",
	"int16":     "smallint",
	"int64":     "bigint",
	"string":    "varchar",
	"bool":      "boolean",
	"float32":   "double",
	"float64":   "double",
	"byte":      "smallint",
	"time.Time": "timestamp",
	"uuid.UUID": "uuid",
}

// inferDataType maps a Go type name to a scalar mapping name
func (tl *TagLoader) inferDataType(goType string) string {
	if t, ok := goTypeMappings[goType]; ok {
		return t
	}
	if goType == "[]byte" {
		return "binary"
	}
	return "text"
}

// attributeName lower-cases the leading word of a field name: LineNo becomes
// lineNo and ID becomes id.
func (tl *TagLoader) attributeName(fieldName string) string {
	runes := []rune(fieldName)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// toSnakeCase converts PascalCase to snake_case
func (tl *TagLoader) toSnakeCase(s string) string {
	var b strings.Builder
	var prev rune

	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}

// FieldTag represents parsed cteshape tag information
type FieldTag struct {
	ID               bool
	ColumnName       string
	DataType         string
	Kind             string
	Target           string
	Relation         string
	MappedBy         string
	JoinColumns      []string
	AnyDiscriminator string
	AnyKey           string
	Table            string
	Discriminator    string
	Formula          string
}
