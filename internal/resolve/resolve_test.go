package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/dbml-render/internal/parser"
	"github.com/hurou927/dbml-render/internal/schema"
)

func mustResolve(t *testing.T, src string) *Schema {
	t.Helper()

	entities, err := parser.Parse(src)
	require.NoError(t, err)
	s, err := Resolve(entities)
	require.NoError(t, err)
	return s
}

func resolveErr(t *testing.T, src string) error {
	t.Helper()

	entities, err := parser.Parse(src)
	require.NoError(t, err)
	s, err := Resolve(entities)
	require.Error(t, err)
	assert.Nil(t, s)
	return err
}

func tableNames(tables []*Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.DisplayName()
	}
	return names
}

const shop = `
Project shop { database_type: 'PostgreSQL' }
Project ignored { }

Table users {
  id int [pk]
  name varchar
}

Table orders as O {
  id int [pk]
  user_id int [ref: > users.id]
  Note: 'first'
  Note: 'second'
}

Table audit.log {
  id int
}

Table tags {
  id int
}

TableGroup sales {
  O
  users
}

Enum status {
  open
  closed
}

Ref: audit.log.id - tags.id
`

func TestResolvePartitionsTables(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, shop)

	require.Len(t, s.Groups, 1)
	assert.Equal(t, "sales", s.Groups[0].Name())
	assert.Equal(t, []string{"orders", "users"}, tableNames(s.Groups[0].Tables))
	assert.Equal(t, []string{"audit.log", "tags"}, tableNames(s.Ungrouped))
	assert.Equal(t, []string{"orders", "users", "audit.log", "tags"}, tableNames(s.Tables()))

	require.NotNil(t, s.Project)
	assert.Equal(t, "shop", s.Project.Name)

	require.Len(t, s.Enums, 1)
	assert.Equal(t, []string{"open", "closed"}, s.Enums[0].Values)
	assert.Same(t, s.Enums[0], s.Enum("status"))
	assert.Nil(t, s.Enum("missing"))
}

func TestResolveMergesOptionsLastWriteWins(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, shop)
	orders := s.Groups[0].Tables[0]
	assert.Equal(t, "second", orders.Note())
}

func TestResolveRelationshipOrder(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, shop)
	require.Len(t, s.Relationships, 2)

	explicit := s.Relationships[0]
	assert.False(t, explicit.Inline)
	assert.Equal(t, schema.OneToOne, explicit.Cardinality())
	assert.Equal(t, TableID{Schema: "audit", Name: "log"}, explicit.From.Table.ID)

	inline := s.Relationships[1]
	assert.True(t, inline.Inline)
	assert.Equal(t, schema.ManyToOne, inline.Cardinality())
	assert.Equal(t, "orders", inline.From.Table.DisplayName())
	assert.Equal(t, []string{"user_id"}, inline.From.ColumnNames())
	assert.Equal(t, "users", inline.To.Table.DisplayName())
	assert.Equal(t, []string{"id"}, inline.To.ColumnNames())
}

func TestResolveEndpointsExist(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, shop)
	for _, rel := range s.Relationships {
		for _, ep := range []Endpoint{rel.From, rel.To} {
			for _, c := range ep.Columns {
				assert.Same(t, c, ep.Table.Column(c.Name))
			}
		}
	}
}

func TestResolveInlineMatchesExplicit(t *testing.T) {
	t.Parallel()

	inline := mustResolve(t, `
Table users { id int }
Table orders { user_id int [ref: > users.id] }
`)
	explicit := mustResolve(t, `
Table users { id int }
Table orders { user_id int }
Ref: orders.user_id > users.id
`)

	require.Len(t, inline.Relationships, 1)
	require.Len(t, explicit.Relationships, 1)
	a, b := inline.Relationships[0], explicit.Relationships[0]
	assert.Equal(t, b.Cardinality(), a.Cardinality())
	assert.Equal(t, b.From.Table.ID, a.From.Table.ID)
	assert.Equal(t, b.From.ColumnNames(), a.From.ColumnNames())
	assert.Equal(t, b.To.Table.ID, a.To.Table.ID)
	assert.Equal(t, b.To.ColumnNames(), a.To.ColumnNames())
}

func TestResolveInlineRefWithSchema(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, `
Table core.users { id int }
Table core.orders { user_id int [ref: > core.users.id] }
`)
	require.Len(t, s.Relationships, 1)
	rel := s.Relationships[0]
	assert.Equal(t, TableID{Schema: "core", Name: "orders"}, rel.From.Table.ID)
	assert.Equal(t, TableID{Schema: "core", Name: "users"}, rel.To.Table.ID)
}

func TestResolveMissingTable(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `
Table users { id int }
Ref: orders.user_id > users.id
`)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, KindTable, refErr.Kind)
	assert.Equal(t, "orders", refErr.Name)
	assert.EqualError(t, err, "table orders does not exist")
}

func TestResolveSchemaMustMatch(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `
Table core.users { id int }
Table orders { user_id int }
Ref: orders.user_id > users.id
`)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "users", refErr.Name)
}

func TestResolveMissingColumn(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `
Table users { id int }
Table orders { user_id int }
Ref: orders.customer_id > users.id
`)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, KindColumn, refErr.Kind)
	assert.EqualError(t, err, "column customer_id does not exist in table orders")
}

func TestResolveMissingGroupMember(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `
Table users { id int }
TableGroup g { ghosts }
`)
	assert.EqualError(t, err, "table ghosts does not exist")
}

func TestResolveTableInTwoGroups(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `
Table users as U { id int }
TableGroup a { users }
TableGroup b { U }
`)
	var cErr *ConstraintError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "U", cErr.Table)
	assert.Equal(t, "b", cErr.Group)
	assert.EqualError(t, err, "table U belongs to multiple groups")
}

func TestResolveNoTableInTwoGroups(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, `
Table a { id int }
Table b { id int }
Table c { id int }
TableGroup one { a }
TableGroup two { b c }
`)
	seen := make(map[TableID]int)
	for _, g := range s.Groups {
		for _, tbl := range g.Tables {
			seen[tbl.ID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, id.String())
	}
	assert.Empty(t, s.Ungrouped)
}

func TestResolveUngroupedOnceInOrder(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, `
Table z { id int }
Table grouped { id int }
Table a { id int }
TableGroup g { grouped }
`)
	assert.Equal(t, []string{"z", "a"}, tableNames(s.Ungrouped))
}

func TestResolveDuplicateTableFirstMatchWins(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, `
Table users { id int }
Table users { uid int }
Table orders { user_id int }
Ref: orders.user_id > users.id
`)
	require.Len(t, s.Relationships, 1)
	assert.Same(t, s.Ungrouped[0], s.Relationships[0].To.Table)
}

func TestResolveInlineRefToMissingTable(t *testing.T) {
	t.Parallel()

	err := resolveErr(t, `Table orders { user_id int [ref: > users.id] }`)
	assert.EqualError(t, err, "table users does not exist")
}

func TestResolveSummary(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, shop)
	assert.Equal(t, "4 tables, 1 groups, 2 relationships, 1 enums", s.Summary())
}

func TestResolvePublicSchemaIsDefault(t *testing.T) {
	t.Parallel()

	s := mustResolve(t, `
Table users { id int }
Table public.orders { user_id int [ref: > public.users.id] }
Ref: orders.user_id - users.id
`)
	require.Len(t, s.Relationships, 2)
	for _, rel := range s.Relationships {
		assert.Equal(t, "public.orders", rel.From.Table.DisplayName())
		assert.Equal(t, "users", rel.To.Table.DisplayName())
	}
}
