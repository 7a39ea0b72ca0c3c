// Package sqlddl parses CREATE TABLE statements (BigQuery, Postgres, MySQL,
// ANSI subsets) into the canonical type tree. Only column name, type,
// nesting, and nullability are extracted; everything else in the grammar is
// skipped, not validated.
package sqlddl

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "sqlddl"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		Extensions:     []string{".sql", ".ddl"},
		ContentMarkers: []string{"CREATE TABLE"},
		Parse:          Parse,
	})
}

var (
	createTableRe = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMP(?:ORARY)?\s+)?(?:EXTERNAL\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([A-Za-z_0-9"` + "`" + `.\[\]$-]+)`)
	constraintRe  = regexp.MustCompile(`(?i)^(PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE\b|CHECK\b|CONSTRAINT\b|KEY\b|INDEX\b|EXCLUDE\b)`)
	columnRe      = regexp.MustCompile(`^(?:"([^"]+)"|` + "`" + `([^` + "`" + `]+)` + "`" + `|\[([^\]]+)\]|([A-Za-z_][A-Za-z0-9_$]*))\s+(.+)$`)
	typeEndRe     = regexp.MustCompile(`(?i)\b(NOT\s+NULL|NULL|DEFAULT|OPTIONS|PRIMARY\s+KEY|REFERENCES|UNIQUE|CHECK|CONSTRAINT|COLLATE|COMMENT|GENERATED|AUTO_INCREMENT)\b`)
	notNullRe     = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
)

// columnDef is one scanned column definition with its source line for error
// reporting.
type columnDef struct {
	text string
	line int
}

// tableBlock is one CREATE TABLE body, or the whole input when the source is
// a bare column list.
type tableBlock struct {
	name    string
	columns []columnDef
}

// Parse extracts the selected table from SQL text. With no selector the
// lexicographically first table is chosen; a selector that matches nothing
// is an error. SQL with no CREATE TABLE at all is treated as one unnamed
// loose column list.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	text := stripComments(string(src))
	tables, err := scanTables(text, opts.Path)
	if err != nil {
		return nil, err
	}

	if len(tables) == 0 {
		loose := looseColumns(text)
		if len(loose) == 0 {
			return nil, errors.NewParse(Name, opts.Path, 0, "no CREATE TABLE statement and no column definitions")
		}
		if opts.Selector != "" {
			return nil, errors.NewSelector(opts.Selector, nil)
		}
		tables = []tableBlock{{columns: loose}}
	}

	table, err := selectTable(tables, opts.Selector)
	if err != nil {
		return nil, err
	}

	root, required, err := buildTable(table, opts.Path)
	if err != nil {
		return nil, err
	}
	return &dialects.Result{Root: root, Required: required, Label: table.name}, nil
}

// scanTables walks the text line by line, tracking open-paren depth from
// each CREATE TABLE header (including column text trailing the header on the
// same line) until depth returns to zero. Column definitions are split on
// commas at top depth; commas inside parentheses or angle brackets belong to
// the current definition.
func scanTables(text, path string) ([]tableBlock, error) {
	lines := strings.Split(text, "\n")
	var tables []tableBlock

	for i := 0; i < len(lines); i++ {
		m := createTableRe.FindStringSubmatchIndex(lines[i])
		if m == nil {
			continue
		}
		name := unquoteIdent(lines[i][m[2]:m[3]])
		block := tableBlock{name: name}

		depth := 0
		angle := 0
		started := false
		var current strings.Builder
		currentLine := 0

		flush := func() {
			txt := strings.TrimSpace(current.String())
			current.Reset()
			if txt != "" {
				block.columns = append(block.columns, columnDef{text: txt, line: currentLine})
			}
			currentLine = 0
		}

		rest := lines[i][m[1]:]
		lineNo := i + 1
		for {
			for _, ch := range rest {
				switch {
				case ch == '(':
					if started && depth >= 1 {
						current.WriteRune(ch)
					}
					depth++
					if depth == 1 {
						started = true
					}
				case ch == ')':
					depth--
					if depth >= 1 {
						current.WriteRune(ch)
					}
				case !started || depth == 0:
					// Before the opening paren, or after the block closed.
				case ch == '<' && depth == 1:
					angle++
					current.WriteRune(ch)
				case ch == '>' && depth == 1 && angle > 0:
					angle--
					current.WriteRune(ch)
				case ch == ',' && depth == 1 && angle == 0:
					flush()
				default:
					if currentLine == 0 && !isSpace(ch) {
						currentLine = lineNo
					}
					current.WriteRune(ch)
				}
				if started && depth == 0 {
					break
				}
			}
			if started && depth == 0 {
				break
			}
			// Join continuation lines with a space: a column definition must
			// stay single-line for the column regex to see its whole type.
			current.WriteRune(' ')
			i++
			if i >= len(lines) {
				if started {
					return nil, errors.NewParse(Name, path, lineNo, "unbalanced parentheses in CREATE TABLE "+name)
				}
				break
			}
			rest = lines[i]
			lineNo = i + 1
		}
		flush()
		tables = append(tables, block)
	}
	return tables, nil
}

// looseColumns treats the whole input as one column list: the form used for
// quick ad-hoc comparisons without a CREATE TABLE wrapper.
func looseColumns(text string) []columnDef {
	var out []columnDef
	for i, line := range strings.Split(text, "\n") {
		txt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if txt == "" {
			continue
		}
		out = append(out, columnDef{text: txt, line: i + 1})
	}
	return out
}

// selectTable resolves the requested table name: exact match first
// (case-insensitive, quotes stripped), then unqualified-suffix match, then
// the reverse (qualified selector against a bare table name). With no
// selector the lexicographically first table wins.
func selectTable(tables []tableBlock, selector string) (tableBlock, error) {
	if selector == "" {
		sorted := make([]tableBlock, len(tables))
		copy(sorted, tables)
		sort.Slice(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].name) < strings.ToLower(sorted[j].name)
		})
		return sorted[0], nil
	}

	want := strings.ToLower(unquoteIdent(selector))
	var exact, suffix []tableBlock
	for _, tb := range tables {
		name := strings.ToLower(tb.name)
		switch {
		case name == want:
			exact = append(exact, tb)
		case lastSegment(name) == want, name == lastSegment(want):
			suffix = append(suffix, tb)
		}
	}
	if len(exact) > 0 {
		return exact[0], nil
	}
	switch len(suffix) {
	case 0:
		return tableBlock{}, errors.NewSelector(selector, nil)
	case 1:
		return suffix[0], nil
	}
	names := make([]string, len(suffix))
	for i, tb := range suffix {
		names[i] = tb.name
	}
	return tableBlock{}, errors.NewSelector(selector, names)
}

func buildTable(tb tableBlock, path string) (typetree.Object, typetree.PathSet, error) {
	var fields []typetree.Field
	required := typetree.NewPathSet()

	for _, col := range tb.columns {
		if constraintRe.MatchString(col.text) {
			continue
		}
		m := columnRe.FindStringSubmatch(col.text)
		if m == nil {
			continue
		}
		name := firstGroup(m[1:5])
		rest := strings.TrimSpace(m[5])

		typeToken := rest
		if loc := typeEndRe.FindStringIndex(rest); loc != nil {
			typeToken = strings.TrimSpace(rest[:loc[0]])
		}
		if typeToken == "" {
			continue
		}

		node, err := typeNode(typeToken, path, col.line)
		if err != nil {
			return typetree.Object{}, nil, err
		}
		fields = append(fields, typetree.Field{Name: name, Type: node})
		if notNullRe.MatchString(rest) {
			required.Add(name)
		}
	}
	return typetree.NewObject(fields...), required, nil
}

// typeNode normalizes one type token. ARRAY<...> and STRUCT<...> need
// balanced angle-bracket scanning, not a regex, because inner types may
// themselves contain angle brackets. Struct element fields are not exploded:
// structure presence is modeled, field introspection is not.
func typeNode(token, path string, line int) (typetree.Node, error) {
	tok := strings.TrimSpace(token)
	upper := strings.ToUpper(tok)

	switch {
	case strings.HasPrefix(upper, "ARRAY<"):
		inner, err := innerAngle(tok, path, line)
		if err != nil {
			return nil, err
		}
		elem, err := typeNode(inner, path, line)
		if err != nil {
			return nil, err
		}
		return typetree.NewArray(elem), nil
	case upper == "ARRAY":
		return typetree.UnknownArray(), nil
	case strings.HasPrefix(upper, "STRUCT<"):
		if _, err := innerAngle(tok, path, line); err != nil {
			return nil, err
		}
		return typetree.NewScalar(typetree.KindObject), nil
	case strings.HasSuffix(tok, "[]"):
		elem, err := typeNode(tok[:len(tok)-2], path, line)
		if err != nil {
			return nil, err
		}
		return typetree.NewArray(elem), nil
	}

	if i := strings.IndexByte(tok, '('); i > 0 {
		tok = strings.TrimSpace(tok[:i])
	}
	return typetree.NewScalar(KindOf(tok)), nil
}

// innerAngle extracts the content between the first '<' and its balanced
// closing '>'.
func innerAngle(tok, path string, line int) (string, error) {
	start := strings.IndexByte(tok, '<')
	if start < 0 {
		return "", errors.NewParse(Name, path, line, "expected '<' in "+tok)
	}
	depth := 0
	for i := start; i < len(tok); i++ {
		switch tok[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return tok[start+1 : i], nil
			}
		}
	}
	return "", errors.NewParse(Name, path, line, "unbalanced angle brackets in "+tok)
}

// stripComments removes -- line comments and /* */ block comments, leaving
// quoted strings untouched. Newlines inside block comments are preserved so
// line numbers stay right.
func stripComments(text string) string {
	var sb strings.Builder
	const (
		stateNormal = iota
		stateLine
		stateBlock
		stateSingle
		stateDouble
		stateBacktick
	)
	state := stateNormal
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateNormal:
			switch {
			case c == '-' && i+1 < len(text) && text[i+1] == '-':
				state = stateLine
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlock
				i++
			case c == '\'':
				state = stateSingle
				sb.WriteByte(c)
			case c == '"':
				state = stateDouble
				sb.WriteByte(c)
			case c == '`':
				state = stateBacktick
				sb.WriteByte(c)
			default:
				sb.WriteByte(c)
			}
		case stateLine:
			if c == '\n' {
				state = stateNormal
				sb.WriteByte(c)
			}
		case stateBlock:
			if c == '\n' {
				sb.WriteByte(c)
			}
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				state = stateNormal
				i++
			}
		case stateSingle:
			sb.WriteByte(c)
			if c == '\'' {
				state = stateNormal
			}
		case stateDouble:
			sb.WriteByte(c)
			if c == '"' {
				state = stateNormal
			}
		case stateBacktick:
			sb.WriteByte(c)
			if c == '`' {
				state = stateNormal
			}
		}
	}
	return sb.String()
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"`[]")
	return s
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func firstGroup(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
