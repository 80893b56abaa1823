package schema

import "strings"

// Entity is one top-level declaration of a schema source.
// Implemented by *Project, *Table, *TableGroup, *Enum and *Ref.
type Entity interface {
	entity()
}

// TableItem is one entry inside a table body.
// Implemented by *Column, *Indices and *Option.
type TableItem interface {
	tableItem()
}

// Settings holds bracketed key/value settings. Keys are lowercased;
// a nil value marks a bare flag such as "pk" or "not null".
type Settings map[string]*string

// Has reports whether key is present, with or without a value.
func (s Settings) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Get returns the value of key. Flags and missing keys return "", false.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// IsPrimaryKey reports whether the settings mark a primary key.
func (s Settings) IsPrimaryKey() bool {
	return s.Has("pk") || s.Has("primary key")
}

// Project is the optional metadata block.
type Project struct {
	Name    string
	Options map[string]string
}

// Table is a table declaration. Identity is (Schema, Name).
type Table struct {
	Schema   string
	Name     string
	Alias    string
	Items    []TableItem
	Settings Settings
}

// FullName returns the schema-qualified table name, or the bare name
// when the table has no schema.
func (t *Table) FullName() string {
	return QualifiedName(t.Schema, t.Name)
}

// Columns returns the column items in declaration order.
func (t *Table) Columns() []*Column {
	var cols []*Column
	for _, item := range t.Items {
		if c, ok := item.(*Column); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// Indices returns the first indexes block, or nil.
func (t *Table) Indices() *Indices {
	for _, item := range t.Items {
		if idx, ok := item.(*Indices); ok {
			return idx
		}
	}
	return nil
}

// Column is a table column. Type is the declared type name and may name an Enum.
type Column struct {
	Name     string
	Type     string
	Settings Settings
}

// Indices is the indexes block of a table.
type Indices struct {
	Indexes []Index
}

// Index is one index declaration over one or more columns.
type Index struct {
	Columns  []string
	Settings Settings
}

// Option is a key/value table option. Table notes are stored under "Note".
type Option struct {
	Values map[string]string
}

// NoteKey is the option key that carries free-text table notes.
const NoteKey = "Note"

// TableRef names a table from a group.
type TableRef struct {
	Schema string
	Name   string
}

// TableGroup groups tables into a visual cluster. Name may be empty.
type TableGroup struct {
	Name   string
	Tables []TableRef
}

// Enum is an enumerated type.
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue is one enum member.
type EnumValue struct {
	Name     string
	Settings Settings
}

// Cardinality is the multiplicity symbol of a relationship.
type Cardinality string

const (
	ManyToMany Cardinality = "<>"
	ManyToOne  Cardinality = ">"
	OneToMany  Cardinality = "<"
	OneToOne   Cardinality = "-"
)

// Valid reports whether c is one of the four known symbols.
func (c Cardinality) Valid() bool {
	switch c {
	case ManyToMany, ManyToOne, OneToMany, OneToOne:
		return true
	}
	return false
}

// ColumnRef is one relationship endpoint.
type ColumnRef struct {
	Schema  string
	Name    string
	Columns []string
}

// TableName returns the schema-qualified table part of the endpoint.
func (r ColumnRef) TableName() string {
	return QualifiedName(r.Schema, r.Name)
}

// Ref is a relationship between two endpoints.
type Ref struct {
	Name        string
	Cardinality Cardinality
	From        ColumnRef
	To          ColumnRef
	Settings    Settings
}

func (*Project) entity()    {}
func (*Table) entity()      {}
func (*TableGroup) entity() {}
func (*Enum) entity()       {}
func (*Ref) entity()        {}

func (*Column) tableItem()  {}
func (*Indices) tableItem() {}
func (*Option) tableItem()  {}

// QualifiedName joins a schema and a name with a dot, omitting an empty schema.
func QualifiedName(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// QuoteName returns name as written in source text, double-quoting it when it
// is not a plain identifier.
func QuoteName(name string) string {
	if isIdent(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
