// Package parser turns DBML source text into raw schema entities.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/hurou927/dbml-render/internal/schema"
)

// ErrNotRef is returned by ParseRef when the statement is not exactly one relationship.
var ErrNotRef = errors.New("statement is not a single relationship")

var dbmlParser = participle.MustBuild[file](
	participle.Lexer(dbmlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Map(unquote, "String", "TripleString", "Expr"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

// Parse parses DBML source into entities in declaration order.
func Parse(src string) ([]schema.Entity, error) {
	return ParseNamed("", src)
}

// ParseNamed is Parse with a file name used in error positions.
func ParseNamed(filename, src string) ([]schema.Entity, error) {
	f, err := dbmlParser.ParseString(filename, src)
	if err != nil {
		return nil, err
	}

	entities := make([]schema.Entity, 0, len(f.Entries))
	for _, e := range f.Entries {
		ent, err := e.convert()
		if err != nil {
			return nil, err
		}
		entities = append(entities, ent)
	}
	return entities, nil
}

// ParseRef parses a single relationship statement such as "Ref: a.b > c.d".
func ParseRef(stmt string) (*schema.Ref, error) {
	entities, err := Parse(stmt)
	if err != nil {
		return nil, err
	}
	if len(entities) != 1 {
		return nil, ErrNotRef
	}
	ref, ok := entities[0].(*schema.Ref)
	if !ok {
		return nil, ErrNotRef
	}
	return ref, nil
}

func (e *entry) convert() (schema.Entity, error) {
	switch {
	case e.Project != nil:
		return e.Project.convert(), nil
	case e.Group != nil:
		return e.Group.convert(), nil
	case e.Table != nil:
		return e.Table.convert(), nil
	case e.Enum != nil:
		return e.Enum.convert(), nil
	case e.Ref != nil:
		return e.Ref.convert()
	}
	return nil, errors.New("empty entry")
}

func (p *projectNode) convert() *schema.Project {
	proj := &schema.Project{Options: make(map[string]string, len(p.Options))}
	if p.Name != nil {
		proj.Name = *p.Name
	}
	for _, o := range p.Options {
		key := o.Key
		if strings.EqualFold(key, schema.NoteKey) {
			key = schema.NoteKey
		}
		proj.Options[key] = o.Value
	}
	return proj
}

func (t *tableNode) convert() *schema.Table {
	tbl := &schema.Table{Settings: convertSettings(t.Settings)}
	tbl.Schema, tbl.Name = splitPath(t.Path)
	if t.Alias != nil {
		tbl.Alias = *t.Alias
	}
	for _, item := range t.Items {
		switch {
		case item.Indexes != nil:
			idx := &schema.Indices{}
			for _, in := range item.Indexes.Indexes {
				idx.Indexes = append(idx.Indexes, schema.Index{
					Columns:  in.Columns,
					Settings: convertSettings(in.Settings),
				})
			}
			tbl.Items = append(tbl.Items, idx)
		case item.Note != nil:
			tbl.Items = append(tbl.Items, &schema.Option{
				Values: map[string]string{schema.NoteKey: item.Note.Text},
			})
		case item.Column != nil:
			tbl.Items = append(tbl.Items, &schema.Column{
				Name:     item.Column.Name,
				Type:     item.Column.Type.String(),
				Settings: convertSettings(item.Column.Settings),
			})
		}
	}
	return tbl
}

func (t typeNode) String() string {
	s := strings.Join(t.Parts, ".")
	if len(t.Args) > 0 {
		s += "(" + strings.Join(t.Args, ",") + ")"
	}
	if t.Array {
		s += "[]"
	}
	return s
}

func (g *groupNode) convert() *schema.TableGroup {
	grp := &schema.TableGroup{}
	if g.Name != nil {
		grp.Name = *g.Name
	}
	for _, m := range g.Members {
		s, n := splitPath(m.Path)
		grp.Tables = append(grp.Tables, schema.TableRef{Schema: s, Name: n})
	}
	return grp
}

func (e *enumNode) convert() *schema.Enum {
	en := &schema.Enum{Name: strings.Join(e.Path, ".")}
	for _, v := range e.Values {
		en.Values = append(en.Values, schema.EnumValue{
			Name:     v.Name,
			Settings: convertSettings(v.Settings),
		})
	}
	return en
}

func (r *refNode) convert() (*schema.Ref, error) {
	body := r.Short
	if body == nil {
		body = r.Long
	}
	from, err := body.From.columnRef()
	if err != nil {
		return nil, err
	}
	to, err := body.To.columnRef()
	if err != nil {
		return nil, err
	}
	ref := &schema.Ref{
		Cardinality: schema.Cardinality(body.Cardinality),
		From:        from,
		To:          to,
		Settings:    convertSettings(body.Settings),
	}
	if r.Name != nil {
		ref.Name = *r.Name
	}
	return ref, nil
}

func (c columnPath) columnRef() (schema.ColumnRef, error) {
	if len(c.Composite) > 0 {
		if len(c.Parts) > 2 {
			return schema.ColumnRef{}, fmt.Errorf("invalid composite reference %q", c.String())
		}
		s, n := splitPath(c.Parts)
		return schema.ColumnRef{Schema: s, Name: n, Columns: c.Composite}, nil
	}
	switch len(c.Parts) {
	case 2:
		return schema.ColumnRef{Name: c.Parts[0], Columns: []string{c.Parts[1]}}, nil
	case 3:
		return schema.ColumnRef{Schema: c.Parts[0], Name: c.Parts[1], Columns: []string{c.Parts[2]}}, nil
	}
	return schema.ColumnRef{}, fmt.Errorf("invalid column reference %q", c.String())
}

// String renders the path back as DBML source.
func (c columnPath) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = schema.QuoteName(p)
	}
	s := strings.Join(parts, ".")
	if len(c.Composite) > 0 {
		cols := make([]string, len(c.Composite))
		for i, col := range c.Composite {
			cols[i] = schema.QuoteName(col)
		}
		s += ".(" + strings.Join(cols, ", ") + ")"
	}
	return s
}

// convertSettings merges settings in order; a repeated key keeps the last value.
func convertSettings(in []*setting) schema.Settings {
	out := make(schema.Settings, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.Join(s.Key, " "))
		out[key] = s.Value.text()
	}
	return out
}

func (v *settingValue) text() *string {
	if v == nil {
		return nil
	}
	var s string
	switch {
	case v.Ref != nil:
		s = v.Ref.Cardinality + " " + v.Ref.Target.String()
	case v.Scalar != nil:
		s = *v.Scalar
	default:
		s = joinWords(v.Words)
	}
	return &s
}

func joinWords(words []string) string {
	var b strings.Builder
	prev := ""
	for i, w := range words {
		if i > 0 && !isPathPunct(w) && prev != "." && prev != "(" {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		prev = w
	}
	return b.String()
}

func isPathPunct(s string) bool {
	return s == "." || s == "(" || s == ")"
}

func splitPath(path []string) (string, string) {
	if len(path) == 2 {
		return path[0], path[1]
	}
	return "", path[0]
}
