package protoidl

import (
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
)

// frameKind classifies one nesting level of the structural scan.
type frameKind int

const (
	frameMessage frameKind = iota
	frameEnum
	frameOneof
	frameIgnored // service, extend, rpc bodies
)

type frame struct {
	kind frameKind
	fqn  string // set for message frames only
}

// statement is one brace- or semicolon-delimited unit of proto source.
type statement struct {
	text  string
	line  int
	opens bool // true when the statement introduced a '{' block
	close bool // true for a bare '}'
}

// scanFile is the structural pass: it strips comments, splits the source
// into statements, and walks them with a stack of message/enum/oneof frames,
// recording per-message field lists and the parent-to-children index of
// nested type definitions.
func scanFile(text, path string) (*fileIndex, error) {
	idx := &fileIndex{
		messages: make(map[string]*protoMessage),
		enums:    make(map[string]bool),
		children: make(map[string][]string),
	}

	stmts := splitStatements(stripProtoComments(text))
	var stack []frame

	enclosingMessage := func() *frame {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == frameMessage {
				return &stack[i]
			}
		}
		return nil
	}

	for _, st := range stmts {
		if st.close {
			if len(stack) == 0 {
				return nil, errors.NewParse(Name, path, st.line, "unbalanced '}'")
			}
			stack = stack[:len(stack)-1]
			continue
		}

		fields := strings.Fields(st.text)
		if len(fields) == 0 {
			continue
		}
		keyword := fields[0]

		if st.opens {
			switch keyword {
			case "message":
				if len(fields) < 2 {
					return nil, errors.NewParse(Name, path, st.line, "message without a name")
				}
				parent := enclosingMessage()
				fqn := qualify(idx.pkg, parent, fields[1])
				idx.messages[fqn] = &protoMessage{fqn: fqn}
				if parent != nil {
					idx.children[parent.fqn] = append(idx.children[parent.fqn], fqn)
				} else {
					idx.topLevel = append(idx.topLevel, fqn)
				}
				stack = append(stack, frame{kind: frameMessage, fqn: fqn})
			case "enum":
				if len(fields) < 2 {
					return nil, errors.NewParse(Name, path, st.line, "enum without a name")
				}
				parent := enclosingMessage()
				fqn := qualify(idx.pkg, parent, fields[1])
				idx.enums[fqn] = true
				if parent != nil {
					idx.children[parent.fqn] = append(idx.children[parent.fqn], fqn)
				}
				stack = append(stack, frame{kind: frameEnum})
			case "oneof":
				stack = append(stack, frame{kind: frameOneof})
			default:
				stack = append(stack, frame{kind: frameIgnored})
			}
			continue
		}

		switch keyword {
		case "syntax", "import", "option", "reserved", "extensions":
			continue
		case "package":
			if len(fields) >= 2 {
				idx.pkg = strings.TrimSuffix(fields[1], ";")
			}
			continue
		}

		// Field statements only exist inside a message (oneof fields belong
		// to the enclosing message and carry no label).
		if len(stack) == 0 || stack[len(stack)-1].kind == frameEnum || stack[len(stack)-1].kind == frameIgnored {
			continue
		}
		msg := enclosingMessage()
		if msg == nil {
			continue
		}
		if f, ok := parseField(st.text, msg.fqn, st.line); ok {
			idx.messages[msg.fqn].fields = append(idx.messages[msg.fqn].fields, f)
		}
	}

	if len(stack) != 0 {
		return nil, errors.NewParse(Name, path, 0, "unbalanced '{': unterminated block")
	}
	return idx, nil
}

// parseField runs the participle grammar over one candidate field
// declaration. Statements that are not fields (stray options, legacy
// syntax) are skipped, never fatal.
func parseField(text, scope string, line int) (protoField, bool) {
	// Field options ([default = ...], [deprecated = true]) end the part the
	// grammar cares about.
	if i := strings.IndexByte(text, '['); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" || !strings.ContainsRune(text, '=') {
		return protoField{}, false
	}

	decl, err := fieldParser.ParseString("", text)
	if err != nil {
		return protoField{}, false
	}

	f := protoField{
		name:     decl.Name,
		repeated: decl.Label == "repeated",
		required: decl.Label == "required",
		scope:    scope,
		line:     line,
	}
	if decl.Map != nil {
		f.isMap = true
	} else {
		f.typeName = decl.Type
	}
	return f, true
}

// qualify builds the FQN of a type declared in the given scope.
func qualify(pkg string, parent *frame, name string) string {
	if parent != nil {
		return parent.fqn + "." + name
	}
	if pkg != "" {
		return pkg + "." + name
	}
	return name
}

// splitStatements cuts comment-free source into statements at ';', '{' and
// '}' boundaries, so one-line message bodies scan the same as formatted
// ones.
func splitStatements(text string) []statement {
	var out []statement
	var sb strings.Builder
	line := 1
	stmtLine := 0

	flush := func(opens bool) {
		txt := strings.TrimSpace(sb.String())
		sb.Reset()
		if txt != "" || opens {
			out = append(out, statement{text: txt, line: stmtLine, opens: opens})
		}
		stmtLine = 0
	}

	inString := false
	for _, ch := range text {
		if ch == '\n' {
			line++
			sb.WriteRune(' ')
			continue
		}
		// Braces and semicolons inside string literals (option values) are
		// not structure.
		if inString {
			sb.WriteRune(ch)
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			sb.WriteRune(ch)
		case ';':
			flush(false)
		case '{':
			flush(true)
		case '}':
			flush(false)
			out = append(out, statement{line: line, close: true})
		default:
			if stmtLine == 0 && ch != ' ' && ch != '\t' && ch != '\r' {
				stmtLine = line
			}
			sb.WriteRune(ch)
		}
	}
	flush(false)
	return out
}

// stripProtoComments removes // line comments and /* */ block comments,
// leaving string literals untouched.
func stripProtoComments(text string) string {
	var sb strings.Builder
	const (
		stateNormal = iota
		stateLine
		stateBlock
		stateString
	)
	state := stateNormal
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateNormal:
			switch {
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				state = stateLine
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlock
				i++
			case c == '"':
				state = stateString
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
		case stateString:
			sb.WriteByte(c)
			if c == '"' {
				state = stateNormal
			}
		}
	}
	return sb.String()
}
