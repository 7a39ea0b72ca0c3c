package sqlddl

import (
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/typetree"
)

// typeMap maps SQL dialect type names (BigQuery, Postgres, MySQL, ANSI) to
// canonical kinds. The vocabulary is open-world: anything absent here is
// "any", never an error.
var typeMap = map[string]typetree.Kind{
	"INT":               typetree.KindInt,
	"INTEGER":           typetree.KindInt,
	"INT2":              typetree.KindInt,
	"INT4":              typetree.KindInt,
	"INT8":              typetree.KindInt,
	"INT32":             typetree.KindInt,
	"INT64":             typetree.KindInt,
	"SMALLINT":          typetree.KindInt,
	"MEDIUMINT":         typetree.KindInt,
	"BIGINT":            typetree.KindInt,
	"TINYINT":           typetree.KindInt,
	"SERIAL":            typetree.KindInt,
	"SMALLSERIAL":       typetree.KindInt,
	"BIGSERIAL":         typetree.KindInt,
	"FLOAT":             typetree.KindFloat,
	"FLOAT4":            typetree.KindFloat,
	"FLOAT8":            typetree.KindFloat,
	"FLOAT64":           typetree.KindFloat,
	"DOUBLE":            typetree.KindFloat,
	"DOUBLE PRECISION":  typetree.KindFloat,
	"REAL":              typetree.KindFloat,
	"DECIMAL":           typetree.KindFloat,
	"NUMERIC":           typetree.KindFloat,
	"BIGNUMERIC":        typetree.KindFloat,
	"NUMBER":            typetree.KindFloat,
	"MONEY":             typetree.KindFloat,
	"BOOL":              typetree.KindBool,
	"BOOLEAN":           typetree.KindBool,
	"STRING":            typetree.KindStr,
	"TEXT":              typetree.KindStr,
	"TINYTEXT":          typetree.KindStr,
	"MEDIUMTEXT":        typetree.KindStr,
	"LONGTEXT":          typetree.KindStr,
	"VARCHAR":           typetree.KindStr,
	"NVARCHAR":          typetree.KindStr,
	"CHAR":              typetree.KindStr,
	"NCHAR":             typetree.KindStr,
	"CHARACTER":         typetree.KindStr,
	"CHARACTER VARYING": typetree.KindStr,
	"CLOB":              typetree.KindStr,
	"UUID":              typetree.KindStr,
	"ENUM":              typetree.KindStr,
	"BYTES":             typetree.KindStr,
	"BLOB":              typetree.KindStr,
	"BINARY":            typetree.KindStr,
	"VARBINARY":         typetree.KindStr,
	"BYTEA":             typetree.KindStr,
	"DATE":              typetree.KindDate,
	"TIME":              typetree.KindTime,
	"TIMESTAMP":         typetree.KindTimestamp,
	"TIMESTAMPTZ":       typetree.KindTimestamp,
	"DATETIME":          typetree.KindTimestamp,
	"DATETIME2":         typetree.KindTimestamp,
	"SMALLDATETIME":     typetree.KindTimestamp,
	"JSON":              typetree.KindObject,
	"JSONB":             typetree.KindObject,
	"RECORD":            typetree.KindObject,
	"STRUCT":            typetree.KindObject,
	"VARIANT":           typetree.KindObject,
}

// KindOf resolves a bare SQL type token (no nesting) to a canonical
// kind, defaulting to "any". A precision suffix like (10,2) is stripped.
func KindOf(token string) typetree.Kind {
	upper := strings.ToUpper(strings.TrimSpace(token))
	if i := strings.IndexByte(upper, '('); i > 0 {
		if j := strings.IndexByte(upper[i:], ')'); j > 0 {
			upper = upper[:i] + upper[i+j+1:]
		}
	}
	// Collapse runs of whitespace so "DOUBLE   PRECISION" still hits.
	upper = strings.Join(strings.Fields(upper), " ")
	if k, ok := typeMap[upper]; ok {
		return k
	}
	// "TIMESTAMP WITH TIME ZONE" and friends: first word decides.
	if i := strings.IndexByte(upper, ' '); i > 0 {
		if k, ok := typeMap[upper[:i]]; ok {
			return k
		}
	}
	return typetree.KindAny
}
