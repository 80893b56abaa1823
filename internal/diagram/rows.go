package diagram

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hurou927/dbml-render/internal/output"
	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

type rowKind int

const (
	headerRow rowKind = iota
	columnRow
	compositeRow
)

// row is one line of a table node. Its port is its position in the node.
type row struct {
	kind rowKind
	// name is the lookup key: the column name, or the comma-joined
	// columns of a composite key.
	name    string
	column  *schema.Column
	columns []string
}

// tableNode holds the rows of one table. Rows are only ever appended.
type tableNode struct {
	table *resolve.Table
	rows  []row
}

func newTableNode(t *resolve.Table) *tableNode {
	n := &tableNode{table: t, rows: make([]row, 0, len(t.Columns)+1)}
	n.rows = append(n.rows, row{kind: headerRow})
	for _, c := range t.Columns {
		n.rows = append(n.rows, row{kind: columnRow, name: c.Name, column: c})
	}
	return n
}

func port(i int) string {
	return "f" + strconv.Itoa(i)
}

func (n *tableNode) id() string {
	return output.EscapeString(n.table.DisplayName())
}

// nodeRef is the DOT reference of row i of this node.
func (n *tableNode) nodeRef(i int) string {
	return fmt.Sprintf(`"%s":%s`, n.id(), port(i))
}

func (n *tableNode) find(name string) (int, bool) {
	for i := 1; i < len(n.rows); i++ {
		if n.rows[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// endpoint returns the row an edge attaches to for the given columns,
// synthesizing a composite key row for multi-column endpoints.
func (n *tableNode) endpoint(columns []string) (int, error) {
	if len(columns) > 1 {
		return n.compositeKey(columns), nil
	}
	if len(columns) == 1 {
		if i, ok := n.find(columns[0]); ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column %s.%s", n.table.DisplayName(), strings.Join(columns, ","))
}

// compositeKey orders columns by declaration (unknown names last, in the
// given order) and reuses an existing row for the same key.
func (n *tableNode) compositeKey(columns []string) int {
	pos := func(name string) int {
		if i, ok := n.find(name); ok {
			return i
		}
		return math.MaxInt
	}
	sorted := slices.Clone(columns)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return cmp.Compare(pos(a), pos(b))
	})

	key := strings.Join(sorted, ",")
	if i, ok := n.find(key); ok {
		return i
	}
	n.rows = append(n.rows, row{kind: compositeRow, name: key, columns: sorted})
	return len(n.rows) - 1
}

func (n *tableNode) renderRow(b *strings.Builder, i int, r row, opts Options) {
	switch r.kind {
	case headerRow:
		bg := opts.HeaderColor
		if c, ok := n.table.Source.Settings.Get("headercolor"); ok && validColor(c) {
			bg = c
		}
		fmt.Fprintf(b, `<TR><TD PORT="%s" BGCOLOR="%s"><FONT COLOR="%s"><B>       %s       </B></FONT></TD></TR>`,
			port(i), bg, FontColor(bg), n.id())
	case columnRow:
		name := output.EscapeString(r.column.Name)
		if n.table.IsPrimaryKey(r.column) {
			name = "<B>" + name + "</B>"
		}
		typ := "<I>" + output.EscapeString(r.column.Type) + "</I>"
		if r.column.Settings.Has("not null") {
			typ += " <B>(!)</B>"
		}
		fmt.Fprintf(b, `<TR><TD ALIGN="LEFT" PORT="%s" BGCOLOR="%s">
        <TABLE CELLPADDING="0" CELLSPACING="0" BORDER="0">
          <TR>
            <TD ALIGN="LEFT">%s    </TD>
            <TD ALIGN="RIGHT"><FONT>%s</FONT></TD>
          </TR>
        </TABLE>
      </TD></TR>`, port(i), rowColor, name, typ)
	case compositeRow:
		cols := make([]string, len(r.columns))
		for j, c := range r.columns {
			cols[j] = output.EscapeString(c)
		}
		fmt.Fprintf(b, `<TR><TD PORT="%s" BGCOLOR="%s"><FONT COLOR="%s"><I>    %s    </I></FONT></TD></TR>`,
			port(i), rowColor, lightBlue, strings.Join(cols, ", "))
	}
}
