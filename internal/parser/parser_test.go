package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/dbml-render/internal/schema"
)

func ptr[T any](v T) *T {
	return &v
}

func TestParseTable(t *testing.T) {
	t.Parallel()

	src := `
// users of the shop
Table core.users as U [headercolor: #3498DB] {
  id int [pk, increment]
  email varchar(255) [not null, unique, note: 'login name']
  status core.user_status
  tags text[]
  created_at timestamp [default: ` + "`now()`" + `]
  Note: 'Registered users'

  indexes {
    (id, email) [unique]
    email
  }
}
`
	entities, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, entities, 1)

	want := &schema.Table{
		Schema:   "core",
		Name:     "users",
		Alias:    "U",
		Settings: schema.Settings{"headercolor": ptr("#3498DB")},
		Items: []schema.TableItem{
			&schema.Column{Name: "id", Type: "int", Settings: schema.Settings{"pk": nil, "increment": nil}},
			&schema.Column{Name: "email", Type: "varchar(255)", Settings: schema.Settings{
				"not null": nil,
				"unique":   nil,
				"note":     ptr("login name"),
			}},
			&schema.Column{Name: "status", Type: "core.user_status"},
			&schema.Column{Name: "tags", Type: "text[]"},
			&schema.Column{Name: "created_at", Type: "timestamp", Settings: schema.Settings{"default": ptr("now()")}},
			&schema.Option{Values: map[string]string{"Note": "Registered users"}},
			&schema.Indices{Indexes: []schema.Index{
				{Columns: []string{"id", "email"}, Settings: schema.Settings{"unique": nil}},
				{Columns: []string{"email"}},
			}},
		},
	}

	if diff := cmp.Diff(want, entities[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	t.Parallel()

	entities, err := Parse("table a { id int }\nTABLE b { id int }\nref: a.id > b.id")
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.IsType(t, &schema.Table{}, entities[0])
	assert.IsType(t, &schema.Table{}, entities[1])
	assert.IsType(t, &schema.Ref{}, entities[2])
}

func TestParseColumnNamedNote(t *testing.T) {
	t.Parallel()

	entities, err := Parse("Table posts {\n  note text\n  Note: 'about posts'\n}")
	require.NoError(t, err)

	tbl := entities[0].(*schema.Table)
	require.Len(t, tbl.Items, 2)
	assert.Equal(t, &schema.Column{Name: "note", Type: "text", Settings: schema.Settings{}}, tbl.Items[0])
	assert.Equal(t, &schema.Option{Values: map[string]string{"Note": "about posts"}}, tbl.Items[1])
}

func TestParseRefs(t *testing.T) {
	t.Parallel()

	src := `
Ref: orders.user_id > users.id
Ref fk_items { items.(order_id, line) - lines.(order_id, line) [delete: cascade] }
Ref: a.b.c <> d.e.f
Ref: x.id < y.x_id
`
	entities, err := Parse(src)
	require.NoError(t, err)

	want := []schema.Entity{
		&schema.Ref{
			Cardinality: schema.ManyToOne,
			From:        schema.ColumnRef{Name: "orders", Columns: []string{"user_id"}},
			To:          schema.ColumnRef{Name: "users", Columns: []string{"id"}},
		},
		&schema.Ref{
			Name:        "fk_items",
			Cardinality: schema.OneToOne,
			From:        schema.ColumnRef{Name: "items", Columns: []string{"order_id", "line"}},
			To:          schema.ColumnRef{Name: "lines", Columns: []string{"order_id", "line"}},
			Settings:    schema.Settings{"delete": ptr("cascade")},
		},
		&schema.Ref{
			Cardinality: schema.ManyToMany,
			From:        schema.ColumnRef{Schema: "a", Name: "b", Columns: []string{"c"}},
			To:          schema.ColumnRef{Schema: "d", Name: "e", Columns: []string{"f"}},
		},
		&schema.Ref{
			Cardinality: schema.OneToMany,
			From:        schema.ColumnRef{Name: "x", Columns: []string{"id"}},
			To:          schema.ColumnRef{Name: "y", Columns: []string{"x_id"}},
		},
	}

	if diff := cmp.Diff(want, entities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInlineRefSetting(t *testing.T) {
	t.Parallel()

	entities, err := Parse(`Table orders { user_id int [ref: > public.users.id, not null] }`)
	require.NoError(t, err)

	col := entities[0].(*schema.Table).Columns()[0]
	v, ok := col.Settings.Get("ref")
	require.True(t, ok)
	assert.Equal(t, "> public.users.id", v)
	assert.True(t, col.Settings.Has("not null"))
}

func TestParseMultiWordSettingValue(t *testing.T) {
	t.Parallel()

	entities, err := Parse(`Ref: a.id > b.id [delete: set null, update: no action]`)
	require.NoError(t, err)

	ref := entities[0].(*schema.Ref)
	del, _ := ref.Settings.Get("delete")
	upd, _ := ref.Settings.Get("update")
	assert.Equal(t, "set null", del)
	assert.Equal(t, "no action", upd)
}

func TestParseEnumGroupProject(t *testing.T) {
	t.Parallel()

	src := `
Project shop {
  database_type: 'PostgreSQL'
  Note: '''
    The shop schema
  '''
}

Enum core.user_status {
  active
  "on hold" [note: 'paused']
}

TableGroup billing {
  orders
  core.invoices
}

TableGroup {
  misc
}
`
	entities, err := Parse(src)
	require.NoError(t, err)

	want := []schema.Entity{
		&schema.Project{Name: "shop", Options: map[string]string{
			"database_type": "PostgreSQL",
			"Note":          "The shop schema",
		}},
		&schema.Enum{Name: "core.user_status", Values: []schema.EnumValue{
			{Name: "active"},
			{Name: "on hold", Settings: schema.Settings{"note": ptr("paused")}},
		}},
		&schema.TableGroup{Name: "billing", Tables: []schema.TableRef{
			{Name: "orders"},
			{Schema: "core", Name: "invoices"},
		}},
		&schema.TableGroup{Tables: []schema.TableRef{{Name: "misc"}}},
	}

	if diff := cmp.Diff(want, entities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRef(t *testing.T) {
	t.Parallel()

	ref, err := ParseRef(`Ref: "order items".order_id > orders.id`)
	require.NoError(t, err)
	assert.Equal(t, "order items", ref.From.Name)
	assert.Equal(t, []string{"order_id"}, ref.From.Columns)

	_, err = ParseRef(`Table t { id int }`)
	require.ErrorIs(t, err, ErrNotRef)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "unclosed table", src: "Table users { id int"},
		{name: "bare column reference", src: "Ref: users > orders.id"},
		{name: "missing cardinality", src: "Ref: users.id orders.id"},
		{name: "unknown keyword", src: "View v { id int }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestColumnPathStringQuotes(t *testing.T) {
	t.Parallel()

	p := columnPath{Parts: []string{"my schema", "users"}, Composite: []string{"a", "b c"}}
	assert.Equal(t, `"my schema".users.(a, "b c")`, p.String())
}

func TestParseTripleStringDedent(t *testing.T) {
	t.Parallel()

	entities, err := Parse("Table t {\n  id int\n  Note: '''\n    multi\n      line\n\n    note  \n  '''\n}")
	require.NoError(t, err)

	tbl := entities[0].(*schema.Table)
	opt := tbl.Items[1].(*schema.Option)
	assert.Equal(t, "multi\n  line\n\nnote", opt.Values[schema.NoteKey])

	entities, err = Parse("Project p { note: '''  one line  ''' }")
	require.NoError(t, err)
	assert.Equal(t, "one line", entities[0].(*schema.Project).Options[schema.NoteKey])
}
