// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "strings"

// MapType normalizes a loosely-specified logical type into a Postgres SQL type.
//
//	"int"/"integer"/"bigint"      -> BIGINT
//	"float"/"double"/"real"       -> DOUBLE PRECISION
//	"numeric"/"decimal"           -> NUMERIC
//	"bool"/"boolean"              -> BOOLEAN
//	everything else               -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE PRECISION"
	case "numeric", "decimal":
		return "NUMERIC"
	case "bool", "boolean":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
