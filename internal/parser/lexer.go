package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// dbmlLexer tokenizes DBML source. Rule order matters: the first matching
// rule wins, so longer forms come before their prefixes.
var dbmlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "TripleString", Pattern: `'''(?s:.*?)'''`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Expr", Pattern: "`[^`]*`"},
	{Name: "Color", Pattern: `#[0-9a-fA-F]+`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Cardinality", Pattern: `<>|[<>-]`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "ArrayMark", Pattern: `\[\]`},
	{Name: "Punct", Pattern: `[{}\[\]():,.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// unquote strips delimiters from String, TripleString and Expr tokens.
func unquote(tok lexer.Token) (lexer.Token, error) {
	s := tok.Value
	switch {
	case strings.HasPrefix(s, "'''"):
		tok.Value = dedent(s[3 : len(s)-3])
	case strings.HasPrefix(s, "`"):
		tok.Value = s[1 : len(s)-1]
	default:
		tok.Value = unescape(s[1 : len(s)-1])
	}
	return tok, nil
}

// dedent drops blank leading and trailing lines and removes the
// indentation shared by all non-blank lines.
func dedent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := len(l) - len(strings.TrimLeft(l, " \t")); indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimRight(l[indent:], " \t")
	}
	return strings.Join(lines, "\n")
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
