package resolve

import (
	"slices"

	"github.com/hurou927/dbml-render/internal/schema"
)

// TableID is the stable identity of a table.
type TableID struct {
	Schema string
	Name   string
}

// String returns the schema-qualified name.
func (id TableID) String() string {
	return schema.QualifiedName(id.Schema, id.Name)
}

// Table is a table with its items partitioned.
type Table struct {
	ID      TableID
	Source  *schema.Table
	Columns []*schema.Column
	Indices *schema.Indices
	// Options merges every option item of the table, last write wins.
	Options map[string]string
}

// DisplayName is the schema-qualified table name shown in diagrams.
func (t *Table) DisplayName() string {
	return t.ID.String()
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *schema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsPrimaryKey reports whether c is marked primary by its own settings or
// by an index declaration that covers it.
func (t *Table) IsPrimaryKey(c *schema.Column) bool {
	if c.Settings.IsPrimaryKey() {
		return true
	}
	if t.Indices == nil {
		return false
	}
	for _, idx := range t.Indices.Indexes {
		if idx.Settings.IsPrimaryKey() && slices.Contains(idx.Columns, c.Name) {
			return true
		}
	}
	return false
}

// PrimaryKey returns the primary-key column names in declaration order.
func (t *Table) PrimaryKey() []string {
	var names []string
	for _, c := range t.Columns {
		if t.IsPrimaryKey(c) {
			names = append(names, c.Name)
		}
	}
	return names
}

// Note returns the merged table note.
func (t *Table) Note() string {
	return t.Options[schema.NoteKey]
}

// Group is a table group with its members resolved.
type Group struct {
	Source *schema.TableGroup
	Tables []*Table
}

// Name returns the group name, which may be empty.
func (g *Group) Name() string {
	return g.Source.Name
}

// Enum is an enum with its value names in declaration order.
type Enum struct {
	Source *schema.Enum
	Values []string
}

// Name returns the enum name.
func (e *Enum) Name() string {
	return e.Source.Name
}

// Endpoint is one side of a relationship bound to a table and its columns.
type Endpoint struct {
	Table   *Table
	Columns []*schema.Column
}

// ColumnNames returns the endpoint column names in reference order.
func (e Endpoint) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// Relationship is a resolved Ref.
type Relationship struct {
	Source *schema.Ref
	From   Endpoint
	To     Endpoint
	// Inline is set for relationships expanded from a column ref setting.
	Inline bool
}

// Cardinality returns the relationship cardinality.
func (r *Relationship) Cardinality() schema.Cardinality {
	return r.Source.Cardinality
}

// Schema is the output of Resolve.
type Schema struct {
	Project       *schema.Project
	Ungrouped     []*Table
	Groups        []*Group
	Relationships []*Relationship
	Enums         []*Enum
}

// Tables returns grouped tables in group order followed by the ungrouped ones.
func (s *Schema) Tables() []*Table {
	var tables []*Table
	for _, g := range s.Groups {
		tables = append(tables, g.Tables...)
	}
	return append(tables, s.Ungrouped...)
}

// Enum returns the enum with the given name, or nil.
func (s *Schema) Enum(name string) *Enum {
	for _, e := range s.Enums {
		if e.Name() == name {
			return e
		}
	}
	return nil
}
