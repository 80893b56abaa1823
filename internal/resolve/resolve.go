// Package resolve cross-checks raw schema entities and binds every
// group member and relationship endpoint to concrete tables and columns.
package resolve

import (
	"fmt"
	"strings"

	"github.com/hurou927/dbml-render/internal/parser"
	"github.com/hurou927/dbml-render/internal/schema"
)

// Resolve validates entities and returns the resolved schema.
// It stops at the first error and returns no partial result.
func Resolve(entities []schema.Entity) (*Schema, error) {
	tables := collectTables(entities)

	inline, err := inlineRefs(tables)
	if err != nil {
		return nil, err
	}

	groups, grouped, err := resolveGroups(entities, tables)
	if err != nil {
		return nil, err
	}

	out := &Schema{Groups: groups}
	for _, t := range tables {
		if !grouped[t.ID] {
			out.Ungrouped = append(out.Ungrouped, t)
		}
	}

	for _, ref := range extract[*schema.Ref](entities) {
		rel, err := resolveRef(ref, tables)
		if err != nil {
			return nil, err
		}
		out.Relationships = append(out.Relationships, rel)
	}
	for _, ref := range inline {
		rel, err := resolveRef(ref, tables)
		if err != nil {
			return nil, err
		}
		rel.Inline = true
		out.Relationships = append(out.Relationships, rel)
	}

	for _, e := range extract[*schema.Enum](entities) {
		values := make([]string, len(e.Values))
		for i, v := range e.Values {
			values[i] = v.Name
		}
		out.Enums = append(out.Enums, &Enum{Source: e, Values: values})
	}

	if projects := extract[*schema.Project](entities); len(projects) > 0 {
		out.Project = projects[0]
	}

	return out, nil
}

func collectTables(entities []schema.Entity) []*Table {
	var tables []*Table
	for _, src := range extract[*schema.Table](entities) {
		t := &Table{
			ID:      TableID{Schema: src.Schema, Name: src.Name},
			Source:  src,
			Columns: src.Columns(),
			Indices: src.Indices(),
			Options: make(map[string]string),
		}
		for _, item := range src.Items {
			if opt, ok := item.(*schema.Option); ok {
				mergeOptions(t.Options, opt.Values)
			}
		}
		tables = append(tables, t)
	}
	return tables
}

// mergeOptions copies src into dst; last write wins.
func mergeOptions(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

// inlineRefs expands column ref settings into relationship entities by
// re-parsing them as top-level Ref statements.
func inlineRefs(tables []*Table) ([]*schema.Ref, error) {
	var refs []*schema.Ref
	for _, t := range tables {
		for _, c := range t.Columns {
			target, ok := c.Settings.Get("ref")
			if !ok || target == "" {
				continue
			}
			stmt := fmt.Sprintf("Ref: %s.%s %s", quotedTableName(t.ID), schema.QuoteName(c.Name), target)
			ref, err := parser.ParseRef(stmt)
			if err != nil {
				return nil, fmt.Errorf("inline ref on %s.%s: %w", t.DisplayName(), c.Name, err)
			}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func quotedTableName(id TableID) string {
	if id.Schema == "" {
		return schema.QuoteName(id.Name)
	}
	return schema.QuoteName(id.Schema) + "." + schema.QuoteName(id.Name)
}

func resolveGroups(entities []schema.Entity, tables []*Table) ([]*Group, map[TableID]bool, error) {
	grouped := make(map[TableID]bool)
	var groups []*Group
	for _, src := range extract[*schema.TableGroup](entities) {
		g := &Group{Source: src}
		for _, ref := range src.Tables {
			t, err := findTable(ref.Schema, ref.Name, tables)
			if err != nil {
				return nil, nil, err
			}
			if grouped[t.ID] {
				return nil, nil, &ConstraintError{
					Table: schema.QualifiedName(ref.Schema, ref.Name),
					Group: src.Name,
				}
			}
			grouped[t.ID] = true
			g.Tables = append(g.Tables, t)
		}
		groups = append(groups, g)
	}
	return groups, grouped, nil
}

func resolveRef(ref *schema.Ref, tables []*Table) (*Relationship, error) {
	from, err := resolveEndpoint(ref.From, tables)
	if err != nil {
		return nil, err
	}
	to, err := resolveEndpoint(ref.To, tables)
	if err != nil {
		return nil, err
	}
	return &Relationship{Source: ref, From: from, To: to}, nil
}

func resolveEndpoint(ref schema.ColumnRef, tables []*Table) (Endpoint, error) {
	t, err := findTable(ref.Schema, ref.Name, tables)
	if err != nil {
		return Endpoint{}, err
	}
	ep := Endpoint{Table: t, Columns: make([]*schema.Column, 0, len(ref.Columns))}
	for _, name := range ref.Columns {
		c := t.Column(name)
		if c == nil {
			return Endpoint{}, &ReferenceError{Kind: KindColumn, Name: name, Table: t.DisplayName()}
		}
		ep.Columns = append(ep.Columns, c)
	}
	return ep, nil
}

// findTable matches by schema and by name or alias. The first match wins.
func findTable(schemaName, name string, tables []*Table) (*Table, error) {
	for _, t := range tables {
		if !sameSchema(t.ID.Schema, schemaName) {
			continue
		}
		if t.ID.Name == name || (t.Source.Alias != "" && t.Source.Alias == name) {
			return t, nil
		}
	}
	return nil, &ReferenceError{Kind: KindTable, Name: schema.QualifiedName(schemaName, name)}
}

// sameSchema treats "public" and the empty schema as the same namespace.
func sameSchema(a, b string) bool {
	if a == schema.DefaultSchema {
		a = ""
	}
	if b == schema.DefaultSchema {
		b = ""
	}
	return a == b
}

func extract[T schema.Entity](entities []schema.Entity) []T {
	var out []T
	for _, e := range entities {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Summary returns a one-line description of the resolved schema.
func (s *Schema) Summary() string {
	parts := []string{
		fmt.Sprintf("%d tables", len(s.Tables())),
		fmt.Sprintf("%d groups", len(s.Groups)),
		fmt.Sprintf("%d relationships", len(s.Relationships)),
		fmt.Sprintf("%d enums", len(s.Enums)),
	}
	return strings.Join(parts, ", ")
}
