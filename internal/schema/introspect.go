package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool and *pgx.Conn used by Introspect.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DefaultSchema is the namespace of unqualified table names.
const DefaultSchema = "public"

// CatalogColumn is one table column read from pg_attribute.
type CatalogColumn struct {
	Schema        string
	Table         string
	Column        string
	Type          string
	NotNull       bool
	TableComment  *string
	ColumnComment *string
}

// CatalogKey is a primary key in key order.
type CatalogKey struct {
	Schema  string
	Table   string
	Columns []string
}

// CatalogForeignKey is a foreign key constraint in key order.
type CatalogForeignKey struct {
	Name          string
	ChildSchema   string
	ChildTable    string
	ChildColumns  []string
	ParentSchema  string
	ParentTable   string
	ParentColumns []string
}

// CatalogEnum is an enum type with its labels in sort order.
type CatalogEnum struct {
	Schema string
	Name   string
	Values []string
}

// Catalog is everything Introspect reads from the database.
type Catalog struct {
	Columns     []CatalogColumn
	PrimaryKeys []CatalogKey
	ForeignKeys []CatalogForeignKey
	Enums       []CatalogEnum
}

// Introspect queries PostgreSQL catalogs and returns the schema as the
// entities a parsed source would produce. Tables named in exclude, by
// "schema.table" or by their display name, are left out together with
// their relationships.
func Introspect(ctx context.Context, q Querier, schemas []string, exclude map[string]bool) ([]Entity, error) {
	cat, err := ReadCatalog(ctx, q, schemas)
	if err != nil {
		return nil, err
	}
	return Assemble(cat, exclude), nil
}

// ReadCatalog runs the catalog queries for schemas.
func ReadCatalog(ctx context.Context, q Querier, schemas []string) (*Catalog, error) {
	var cat Catalog
	var err error

	if cat.Enums, err = queryEnums(ctx, q, schemas); err != nil {
		return nil, fmt.Errorf("querying enums: %w", err)
	}
	if cat.Columns, err = queryColumns(ctx, q, schemas); err != nil {
		return nil, fmt.Errorf("querying tables and columns: %w", err)
	}
	if cat.PrimaryKeys, err = queryPrimaryKeys(ctx, q, schemas); err != nil {
		return nil, fmt.Errorf("querying primary keys: %w", err)
	}
	if cat.ForeignKeys, err = queryForeignKeys(ctx, q, schemas); err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	return &cat, nil
}

func queryEnums(ctx context.Context, q Querier, schemas []string) ([]CatalogEnum, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			t.typname AS type_name,
			array_agg(e.enumlabel::text ORDER BY e.enumsortorder) AS labels
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE n.nspname = ANY($1)
		GROUP BY n.nspname, t.typname
		ORDER BY n.nspname, t.typname
	`

	rows, err := q.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CatalogEnum, error) {
		var e CatalogEnum
		err := row.Scan(&e.Schema, &e.Name, &e.Values)
		return e, err
	})
}

func queryColumns(ctx context.Context, q Querier, schemas []string) ([]CatalogColumn, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			a.attname AS column_name,
			CASE WHEN t.typtype = 'e'
				THEN CASE WHEN tn.nspname = 'public' THEN t.typname ELSE tn.nspname || '.' || t.typname END
				ELSE format_type(a.atttypid, a.atttypmod)
			END AS data_type,
			a.attnotnull AS not_null,
			obj_description(c.oid, 'pg_class') AS table_comment,
			col_description(c.oid, a.attnum) AS column_comment
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		JOIN pg_type t ON t.oid = a.atttypid
		JOIN pg_namespace tn ON tn.oid = t.typnamespace
		WHERE c.relkind IN ('r', 'p')
			AND NOT c.relispartition
			AND a.attnum > 0
			AND NOT a.attisdropped
			AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname, a.attnum
	`

	rows, err := q.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CatalogColumn, error) {
		var c CatalogColumn
		err := row.Scan(&c.Schema, &c.Table, &c.Column, &c.Type, &c.NotNull, &c.TableComment, &c.ColumnComment)
		return c, err
	})
}

func queryPrimaryKeys(ctx context.Context, q Querier, schemas []string) ([]CatalogKey, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			array_agg(a.attname::text ORDER BY u.ord) AS columns
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = u.attnum
		WHERE con.contype = 'p'
			AND n.nspname = ANY($1)
		GROUP BY n.nspname, c.relname
		ORDER BY n.nspname, c.relname
	`

	rows, err := q.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CatalogKey, error) {
		var k CatalogKey
		err := row.Scan(&k.Schema, &k.Table, &k.Columns)
		return k, err
	})
}

func queryForeignKeys(ctx context.Context, q Querier, schemas []string) ([]CatalogForeignKey, error) {
	query := `
		SELECT
			con.conname AS fk_name,
			cn.nspname AS child_schema,
			cc.relname AS child_table,
			array_agg(ca.attname::text ORDER BY u.ord) AS child_columns,
			pn.nspname AS parent_schema,
			pc.relname AS parent_table,
			array_agg(pa.attname::text ORDER BY u.ord) AS parent_columns
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
		JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = u.child_attnum
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
		WHERE con.contype = 'f'
			AND cn.nspname = ANY($1)
		GROUP BY con.oid, con.conname, cn.nspname, cc.relname, pn.nspname, pc.relname
		ORDER BY cn.nspname, cc.relname, con.conname
	`

	rows, err := q.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CatalogForeignKey, error) {
		var fk CatalogForeignKey
		err := row.Scan(&fk.Name, &fk.ChildSchema, &fk.ChildTable, &fk.ChildColumns,
			&fk.ParentSchema, &fk.ParentTable, &fk.ParentColumns)
		return fk, err
	})
}

// Assemble converts catalog rows into entities: enums first, then tables
// in catalog order, then one many-to-one Ref per foreign key. A foreign
// key that points at a table outside the catalog is dropped.
func Assemble(cat *Catalog, exclude map[string]bool) []Entity {
	var entities []Entity
	for _, e := range cat.Enums {
		en := &Enum{Name: QualifiedName(shortSchema(e.Schema), e.Name)}
		for _, v := range e.Values {
			en.Values = append(en.Values, EnumValue{Name: v, Settings: Settings{}})
		}
		entities = append(entities, en)
	}

	excluded := func(schemaName, table string) bool {
		return exclude[schemaName+"."+table] || exclude[QualifiedName(shortSchema(schemaName), table)]
	}

	tables := make(map[string]*Table)
	for _, c := range cat.Columns {
		if excluded(c.Schema, c.Table) {
			continue
		}
		key := c.Schema + "." + c.Table
		tbl, ok := tables[key]
		if !ok {
			tbl = &Table{Schema: shortSchema(c.Schema), Name: c.Table, Settings: Settings{}}
			if c.TableComment != nil && *c.TableComment != "" {
				tbl.Items = append(tbl.Items, &Option{Values: map[string]string{NoteKey: *c.TableComment}})
			}
			tables[key] = tbl
			entities = append(entities, tbl)
		}

		settings := Settings{}
		if c.NotNull {
			settings["not null"] = nil
		}
		if c.ColumnComment != nil && *c.ColumnComment != "" {
			note := *c.ColumnComment
			settings["note"] = &note
		}
		tbl.Items = append(tbl.Items, &Column{Name: c.Column, Type: c.Type, Settings: settings})
	}

	for _, pk := range cat.PrimaryKeys {
		tbl, ok := tables[pk.Schema+"."+pk.Table]
		if !ok || len(pk.Columns) == 0 {
			continue
		}
		if len(pk.Columns) == 1 {
			for _, col := range tbl.Columns() {
				if col.Name == pk.Columns[0] {
					col.Settings["pk"] = nil
				}
			}
			continue
		}
		tbl.Items = append(tbl.Items, &Indices{Indexes: []Index{{
			Columns:  pk.Columns,
			Settings: Settings{"pk": nil},
		}}})
	}

	for _, fk := range cat.ForeignKeys {
		_, child := tables[fk.ChildSchema+"."+fk.ChildTable]
		_, parent := tables[fk.ParentSchema+"."+fk.ParentTable]
		if !child || !parent {
			continue
		}
		entities = append(entities, &Ref{
			Name:        fk.Name,
			Cardinality: ManyToOne,
			From:        ColumnRef{Schema: shortSchema(fk.ChildSchema), Name: fk.ChildTable, Columns: fk.ChildColumns},
			To:          ColumnRef{Schema: shortSchema(fk.ParentSchema), Name: fk.ParentTable, Columns: fk.ParentColumns},
			Settings:    Settings{},
		})
	}

	return entities
}

func shortSchema(name string) string {
	if name == DefaultSchema {
		return ""
	}
	return name
}
