package protoidl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// fieldGrammar is the participle grammar for one proto field declaration,
// after the statement splitter has removed the trailing ';' and any
// [option] suffix. Examples:
//
//	int32 x = 1
//	repeated .pkg.Other items = 2
//	map<string, Project> projects = 3
//
//nolint:govet // participle grammar tags are not standard struct tags
type fieldGrammar struct {
	Label string    `@("repeated" | "required" | "optional")?`
	Map   *mapEntry `( @@`
	Type  string    `  | @Ident )`
	Name  string    `@Ident`
	Tag   int       `"=" @Int`
}

//nolint:govet // participle grammar tags are not standard struct tags
type mapEntry struct {
	Key   string `"map" "<" @Ident ","`
	Value string `@Ident ">"`
}

// fieldLexer tokenizes field declarations. Ident covers dotted and
// absolute (leading-dot) type references as well as plain names.
var fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `\.?[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Punct", Pattern: `[=<>,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var fieldParser = participle.MustBuild[fieldGrammar](
	participle.Lexer(fieldLexer),
	participle.Elide("Whitespace"),
)
