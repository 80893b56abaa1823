// Package diagram compiles a resolved schema into a Graphviz DOT description.
package diagram

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/hurou927/dbml-render/internal/output"
	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

const (
	darkBlue     = "#29235c"
	lightBlue    = "#1d71b8"
	rowColor     = "#e7e2dd"
	clusterColor = "#dddddd"
	white        = "#ffffff"
	black        = "#000000"
)

// unnamedGroup labels clusters of groups declared without a name.
const unnamedGroup = "-unnamed-"

// Options control the graph-wide look of the diagram.
type Options struct {
	RankDir     string
	HeaderColor string
	FontName    string
}

// DefaultOptions returns the stock theme.
func DefaultOptions() Options {
	return Options{
		RankDir:     "LR",
		HeaderColor: lightBlue,
		FontName:    "helvetica",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RankDir == "" {
		o.RankDir = d.RankDir
	}
	if !validColor(o.HeaderColor) {
		o.HeaderColor = d.HeaderColor
	}
	if o.FontName == "" {
		o.FontName = d.FontName
	}
	return o
}

// colorPattern accepts #RGB to #RRGGBBAA hex values and Graphviz color names.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z][a-zA-Z0-9]*)$`)

// validColor reports whether c can be written into a BGCOLOR attribute as is.
func validColor(c string) bool {
	return colorPattern.MatchString(c)
}

// FontColor picks black or white text for a #RRGGBB background using the
// luminance 0.299R + 0.587G + 0.114B against a threshold of 186. Any other
// color notation gets white text.
func FontColor(bg string) string {
	if len(bg) != 7 || bg[0] != '#' {
		return white
	}
	var rgb [3]uint64
	for i := range rgb {
		v, err := strconv.ParseUint(bg[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return white
		}
		rgb[i] = v
	}
	// integer form of the luminance test, exact at the boundary
	if 299*rgb[0]+587*rgb[1]+114*rgb[2] > 186_000 {
		return black
	}
	return white
}

var cardinalityLabels = map[schema.Cardinality][2]string{
	schema.ManyToMany: {"*", "*"},
	schema.ManyToOne:  {"*", "1"},
	schema.OneToMany:  {"1", "*"},
	schema.OneToOne:   {"1", "1"},
}

type refEdge struct {
	cardinality schema.Cardinality
	from, to    *tableNode
	fromRow     int
	toRow       int
}

type enumEdge struct {
	table *tableNode
	row   int
	enum  *resolve.Enum
}

type compiler struct {
	opts      Options
	nodes     map[resolve.TableID]*tableNode
	groups    [][]*tableNode
	ungrouped []*tableNode
	refs      []refEdge
	enumRefs  []enumEdge
}

// Compile returns the DOT description of s.
func Compile(s *resolve.Schema, opts Options) (string, error) {
	var b strings.Builder
	if err := Write(&b, s, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write compiles s and writes the DOT description to w. Nothing is written
// when compilation fails.
func Write(w io.Writer, s *resolve.Schema, opts Options) error {
	c := &compiler{
		opts:  opts.withDefaults(),
		nodes: make(map[resolve.TableID]*tableNode),
	}
	if err := c.build(s); err != nil {
		return err
	}

	var b strings.Builder
	c.emit(&b, s)
	_, err := io.WriteString(w, b.String())
	return err
}

// build registers every row, composite keys included, before anything is
// emitted, so ports are final when edges are written.
func (c *compiler) build(s *resolve.Schema) error {
	for _, g := range s.Groups {
		nodes := make([]*tableNode, len(g.Tables))
		for i, t := range g.Tables {
			nodes[i] = c.add(t)
		}
		c.groups = append(c.groups, nodes)
	}
	for _, t := range s.Ungrouped {
		c.ungrouped = append(c.ungrouped, c.add(t))
	}

	for _, rel := range s.Relationships {
		e, err := c.relationship(rel)
		if err != nil {
			return err
		}
		c.refs = append(c.refs, e)
	}

	for _, n := range c.allNodes() {
		for i, r := range n.rows {
			if r.kind != columnRow {
				continue
			}
			if e := s.Enum(r.column.Type); e != nil {
				c.enumRefs = append(c.enumRefs, enumEdge{table: n, row: i, enum: e})
			}
		}
	}
	return nil
}

// allNodes lists grouped nodes in group order, then ungrouped ones.
func (c *compiler) allNodes() []*tableNode {
	var all []*tableNode
	for _, nodes := range c.groups {
		all = append(all, nodes...)
	}
	return append(all, c.ungrouped...)
}

func (c *compiler) add(t *resolve.Table) *tableNode {
	n := newTableNode(t)
	// lookups bind a duplicated identity to its first declaration
	if _, ok := c.nodes[t.ID]; !ok {
		c.nodes[t.ID] = n
	}
	return n
}

// relationship lowers rel into an edge. A "<" relationship becomes the
// mirrored ">" relationship so both render the same way.
func (c *compiler) relationship(rel *resolve.Relationship) (refEdge, error) {
	from, to := rel.From, rel.To
	card := rel.Cardinality()
	if card == schema.OneToMany {
		from, to = to, from
		card = schema.ManyToOne
	}

	e := refEdge{cardinality: card}
	var err error
	if e.from, e.fromRow, err = c.endpoint(from); err != nil {
		return refEdge{}, err
	}
	if e.to, e.toRow, err = c.endpoint(to); err != nil {
		return refEdge{}, err
	}
	return e, nil
}

func (c *compiler) endpoint(ep resolve.Endpoint) (*tableNode, int, error) {
	n, ok := c.nodes[ep.Table.ID]
	if !ok {
		return nil, 0, fmt.Errorf("unknown table %s", ep.Table.DisplayName())
	}
	i, err := n.endpoint(ep.ColumnNames())
	if err != nil {
		return nil, 0, err
	}
	return n, i, nil
}

func (c *compiler) emit(b *strings.Builder, s *resolve.Schema) {
	font := c.opts.FontName
	fmt.Fprintf(b, "digraph dbml {\n")
	fmt.Fprintf(b, "  rankdir=%s;\n", c.opts.RankDir)
	fmt.Fprintf(b, "  graph [fontname=%q, fontsize=32, fontcolor=%q, bgcolor=\"transparent\"];\n", font, darkBlue)
	fmt.Fprintf(b, "  node [penwidth=0, margin=0, fontname=%q, fontsize=32, fontcolor=%q];\n", font, darkBlue)
	fmt.Fprintf(b, "  edge [fontname=%q, fontsize=32, fontcolor=%q, color=%q];\n\n", font, darkBlue, darkBlue)

	for _, e := range s.Enums {
		writeEnum(b, e)
	}
	for i, nodes := range c.groups {
		c.writeGroup(b, i, s.Groups[i], nodes)
	}
	for _, n := range c.ungrouped {
		c.writeTable(b, n, "  ")
	}
	for _, e := range c.refs {
		writeRef(b, e)
	}
	for _, e := range c.enumRefs {
		fmt.Fprintf(b, "  %s:e -> \"%s\":f0:w [penwidth=3, color=%q, arrowhead=\"none\", arrowtail=\"none\"];\n",
			e.table.nodeRef(e.row), output.EscapeString(e.enum.Name()), darkBlue)
	}
	b.WriteString("}\n")
}

func (c *compiler) writeGroup(b *strings.Builder, i int, g *resolve.Group, nodes []*tableNode) {
	name := g.Name()
	if name == "" {
		name = unnamedGroup
	}
	fmt.Fprintf(b, "  subgraph cluster_%d {\n", i)
	fmt.Fprintf(b, "    label=\"%s\";\n", output.EscapeString(name))
	fmt.Fprintf(b, "    style=filled;\n")
	fmt.Fprintf(b, "    color=%q;\n\n", clusterColor)
	for _, n := range nodes {
		c.writeTable(b, n, "    ")
	}
	b.WriteString("  }\n")
}

func (c *compiler) writeTable(b *strings.Builder, n *tableNode, indent string) {
	id := n.id()
	tooltip := ""
	if note := n.table.Note(); note != "" {
		tooltip = fmt.Sprintf(`tooltip="%s\n%s";`, id, output.EscapeString(note))
	}
	fmt.Fprintf(b, "%s\"%s\" [id=\"%s\";%slabel=<<TABLE BORDER=\"2\" COLOR=%q CELLBORDER=\"1\" CELLSPACING=\"0\" CELLPADDING=\"10\">\n",
		indent, id, id, tooltip, darkBlue)
	for i, r := range n.rows {
		b.WriteString(indent + "  ")
		n.renderRow(b, i, r, c.opts)
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "%s</TABLE>>];\n", indent)
}

func writeEnum(b *strings.Builder, e *resolve.Enum) {
	name := output.EscapeString(e.Name())
	fmt.Fprintf(b, "  \"%s\" [id=\"%s\";label=<<TABLE BORDER=\"2\" COLOR=%q CELLBORDER=\"1\" CELLSPACING=\"0\" CELLPADDING=\"10\">\n",
		name, name, darkBlue)
	fmt.Fprintf(b, "    <TR><TD PORT=\"f0\" BGCOLOR=%q><FONT COLOR=%q><B>       %s       </B></FONT></TD></TR>\n",
		darkBlue, white, name)
	for i, v := range e.Values {
		fmt.Fprintf(b, "    <TR><TD PORT=\"%s\" BGCOLOR=%q><FONT COLOR=%q><I>    %s    </I></FONT></TD></TR>\n",
			port(i+1), rowColor, lightBlue, output.EscapeString(v))
	}
	b.WriteString("  </TABLE>>];\n")
}

func writeRef(b *strings.Builder, e refEdge) {
	labels := cardinalityLabels[e.cardinality]
	dir := "forward"
	if e.cardinality == schema.ManyToMany {
		dir = "both"
	}
	fmt.Fprintf(b, "  %s -> %s [style=invis, weight=100, color=red];\n", e.from.nodeRef(0), e.to.nodeRef(0))
	fmt.Fprintf(b, "  %s:e -> %s:w [dir=%s, penwidth=3, color=%q, headlabel=%q, taillabel=%q];\n",
		e.from.nodeRef(e.fromRow), e.to.nodeRef(e.toRow), dir, darkBlue, labels[1], labels[0])
}
