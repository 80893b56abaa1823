package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

func ptr(s string) *string { return &s }

func catalog() *schema.Catalog {
	return &schema.Catalog{
		Enums: []schema.CatalogEnum{
			{Schema: "public", Name: "mood", Values: []string{"happy", "sad"}},
		},
		Columns: []schema.CatalogColumn{
			{Schema: "public", Table: "users", Column: "id", Type: "integer", NotNull: true, TableComment: ptr("people")},
			{Schema: "public", Table: "users", Column: "mood", Type: "mood", TableComment: ptr("people"), ColumnComment: ptr("today")},
			{Schema: "sales", Table: "orders", Column: "id", Type: "bigint", NotNull: true},
			{Schema: "sales", Table: "orders", Column: "user_id", Type: "integer"},
			{Schema: "sales", Table: "lines", Column: "order_id", Type: "bigint", NotNull: true},
			{Schema: "sales", Table: "lines", Column: "n", Type: "integer", NotNull: true},
			{Schema: "public", Table: "secrets", Column: "id", Type: "integer"},
		},
		PrimaryKeys: []schema.CatalogKey{
			{Schema: "public", Table: "users", Columns: []string{"id"}},
			{Schema: "sales", Table: "orders", Columns: []string{"id"}},
			{Schema: "sales", Table: "lines", Columns: []string{"order_id", "n"}},
			{Schema: "public", Table: "secrets", Columns: []string{"id"}},
		},
		ForeignKeys: []schema.CatalogForeignKey{
			{
				Name: "orders_user_fk", ChildSchema: "sales", ChildTable: "orders", ChildColumns: []string{"user_id"},
				ParentSchema: "public", ParentTable: "users", ParentColumns: []string{"id"},
			},
			{
				Name: "lines_order_fk", ChildSchema: "sales", ChildTable: "lines", ChildColumns: []string{"order_id"},
				ParentSchema: "sales", ParentTable: "orders", ParentColumns: []string{"id"},
			},
			{
				Name: "secrets_user_fk", ChildSchema: "public", ChildTable: "secrets", ChildColumns: []string{"id"},
				ParentSchema: "public", ParentTable: "users", ParentColumns: []string{"id"},
			},
		},
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	entities := schema.Assemble(catalog(), map[string]bool{"public.secrets": true})
	require.Len(t, entities, 6)

	want := []schema.Entity{
		&schema.Enum{Name: "mood", Values: []schema.EnumValue{
			{Name: "happy", Settings: schema.Settings{}},
			{Name: "sad", Settings: schema.Settings{}},
		}},
		&schema.Table{
			Name:     "users",
			Settings: schema.Settings{},
			Items: []schema.TableItem{
				&schema.Option{Values: map[string]string{schema.NoteKey: "people"}},
				&schema.Column{Name: "id", Type: "integer", Settings: schema.Settings{"not null": nil, "pk": nil}},
				&schema.Column{Name: "mood", Type: "mood", Settings: schema.Settings{"note": ptr("today")}},
			},
		},
	}
	if diff := cmp.Diff(want, entities[:2]); diff != "" {
		t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
	}

	lines := entities[3].(*schema.Table)
	assert.Equal(t, "sales", lines.Schema)
	require.NotNil(t, lines.Indices())
	assert.Equal(t, []string{"order_id", "n"}, lines.Indices().Indexes[0].Columns)
	assert.True(t, lines.Indices().Indexes[0].Settings.IsPrimaryKey())

	ref := entities[4].(*schema.Ref)
	assert.Equal(t, schema.ManyToOne, ref.Cardinality)
	assert.Equal(t, schema.ColumnRef{Schema: "sales", Name: "orders", Columns: []string{"user_id"}}, ref.From)
	assert.Equal(t, schema.ColumnRef{Name: "users", Columns: []string{"id"}}, ref.To)
}

func TestAssembleExcludeByDisplayName(t *testing.T) {
	t.Parallel()

	entities := schema.Assemble(catalog(), map[string]bool{"secrets": true, "sales.lines": true})

	var tables []string
	refs := 0
	for _, e := range entities {
		switch e := e.(type) {
		case *schema.Table:
			tables = append(tables, e.FullName())
		case *schema.Ref:
			refs++
		}
	}
	assert.Equal(t, []string{"users", "sales.orders"}, tables)
	assert.Equal(t, 1, refs)
}

func TestAssembleResolves(t *testing.T) {
	t.Parallel()

	s, err := resolve.Resolve(schema.Assemble(catalog(), nil))
	require.NoError(t, err)

	assert.Equal(t, "4 tables, 0 groups, 3 relationships, 1 enums", s.Summary())
	users := s.Ungrouped[0]
	assert.Equal(t, "people", users.Note())
	assert.Equal(t, []string{"id"}, users.PrimaryKey())
	assert.Equal(t, []string{"order_id", "n"}, s.Ungrouped[2].PrimaryKey())
}
