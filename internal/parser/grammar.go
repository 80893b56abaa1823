package parser

// Grammar nodes. Keywords are matched case-insensitively.

type file struct {
	Entries []*entry `parser:"@@*"`
}

type entry struct {
	Project *projectNode `parser:"  @@"`
	Group   *groupNode   `parser:"| @@"`
	Table   *tableNode   `parser:"| @@"`
	Enum    *enumNode    `parser:"| @@"`
	Ref     *refNode     `parser:"| @@"`
}

type projectNode struct {
	Name    *string          `parser:"'Project' @(Ident | String)?"`
	Options []*projectOption `parser:"'{' @@* '}'"`
}

type projectOption struct {
	Key   string `parser:"@Ident"`
	Value string `parser:"( ':' @(String | TripleString | Ident | Number | Color) | '{' @(String | TripleString) '}' )"`
}

type tableNode struct {
	Path     []string     `parser:"'Table' @(Ident | String) ( '.' @(Ident | String) )?"`
	Alias    *string      `parser:"( 'as' @(Ident | String) )?"`
	Settings []*setting   `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
	Items    []*tableItem `parser:"'{' @@* '}'"`
}

type tableItem struct {
	Indexes *indexesNode `parser:"  @@"`
	Note    *noteNode    `parser:"| @@"`
	Column  *columnNode  `parser:"| @@"`
}

type indexesNode struct {
	Indexes []*indexNode `parser:"'indexes' '{' @@* '}'"`
}

type indexNode struct {
	Columns  []string   `parser:"( '(' @(Ident | String | Expr) ( ',' @(Ident | String | Expr) )* ')' | @(Ident | String | Expr) )"`
	Settings []*setting `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
}

type noteNode struct {
	Text string `parser:"'note' ( ':' @(String | TripleString) | '{' @(String | TripleString) '}' )"`
}

type columnNode struct {
	Name     string     `parser:"@(Ident | String)"`
	Type     typeNode   `parser:"@@"`
	Settings []*setting `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
}

type typeNode struct {
	Parts []string `parser:"@(Ident | String) ( '.' @(Ident | String) )?"`
	Args  []string `parser:"( '(' @(Number | Ident | String) ( ',' @(Number | Ident | String) )* ')' )?"`
	Array bool     `parser:"@ArrayMark?"`
}

type setting struct {
	Key   []string      `parser:"@Ident+"`
	Value *settingValue `parser:"( ':' @@ )?"`
}

type settingValue struct {
	Ref    *inlineRef `parser:"  @@"`
	Scalar *string    `parser:"| @(String | TripleString | Expr | Color | Number)"`
	Words  []string   `parser:"| @Ident ( @'.' @Ident | @'(' @(Number | Ident)? @')' | @Ident )*"`
}

type inlineRef struct {
	Cardinality string     `parser:"@Cardinality"`
	Target      columnPath `parser:"@@"`
}

type columnPath struct {
	Parts     []string `parser:"@(Ident | String) ( '.' @(Ident | String) )*"`
	Composite []string `parser:"( '.' '(' @(Ident | String) ( ',' @(Ident | String) )* ')' )?"`
}

type groupNode struct {
	Name    *string        `parser:"'TableGroup' @(Ident | String)?"`
	Members []*groupMember `parser:"'{' @@* '}'"`
}

type groupMember struct {
	Path []string `parser:"@(Ident | String) ( '.' @(Ident | String) )?"`
}

type enumNode struct {
	Path   []string     `parser:"'Enum' @(Ident | String) ( '.' @(Ident | String) )?"`
	Values []*enumValue `parser:"'{' @@* '}'"`
}

type enumValue struct {
	Name     string     `parser:"@(Ident | String)"`
	Settings []*setting `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
}

type refNode struct {
	Name  *string  `parser:"'Ref' @(Ident | String)?"`
	Short *refBody `parser:"( ':' @@"`
	Long  *refBody `parser:"| '{' @@ '}' )"`
}

type refBody struct {
	From        columnPath `parser:"@@"`
	Cardinality string     `parser:"@Cardinality"`
	To          columnPath `parser:"@@"`
	Settings    []*setting `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
}
