// Package all registers every built-in dialect parser. Importing it for
// side effects is how a binary opts in to the full parser set:
//
//	import _ "github.com/FocuswithJustin/SchemaScope/internal/dialects/all"
package all

import (
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/dbt"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/jsondata"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/jsonschema"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/protoidl"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/sparktext"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/sqlddl"
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/xsd"
)
