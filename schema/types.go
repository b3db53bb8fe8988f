package schema

import "strings"

// JdbcMapping identifies the scalar type of a single column.
type JdbcMapping struct {
	Name string
}

func (m JdbcMapping) String() string {
	return m.Name
}

var (
	Integer   = JdbcMapping{Name: "integer"}
	Bigint    = JdbcMapping{Name: "bigint"}
	Smallint  = JdbcMapping{Name: "smallint"}
	Numeric   = JdbcMapping{Name: "numeric"}
	Double    = JdbcMapping{Name: "double"}
	Text      = JdbcMapping{Name: "text"}
	Varchar   = JdbcMapping{Name: "varchar"}
	Char      = JdbcMapping{Name: "char"}
	Boolean   = JdbcMapping{Name: "boolean"}
	Date      = JdbcMapping{Name: "date"}
	Timestamp = JdbcMapping{Name: "timestamp"}
	UUID      = JdbcMapping{Name: "uuid"}
	Binary    = JdbcMapping{Name: "binary"}
)

var mappings = map[string]JdbcMapping{
	"integer":   Integer,
	"int":       Integer,
	"int4":      Integer,
	"bigint":    Bigint,
	"long":      Bigint,
	"int8":      Bigint,
	"smallint":  Smallint,
	"short":     Smallint,
	"numeric":   Numeric,
	"decimal":   Numeric,
	"double":    Double,
	"float":     Double,
	"text":      Text,
	"string":    Varchar,
	"varchar":   Varchar,
	"char":      Char,
	"boolean":   Boolean,
	"bool":      Boolean,
	"date":      Date,
	"timestamp": Timestamp,
	"datetime":  Timestamp,
	"uuid":      UUID,
	"binary":    Binary,
	"bytea":     Binary,
}

// LookupMapping resolves a type name (case-insensitive, aliases allowed).
func LookupMapping(name string) (JdbcMapping, bool) {
	m, ok := mappings[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}
