// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps the logical column types declared in internal/schema into SQL
// Server types.
package ddl

import "strings"

// MapType maps a logical type string into a SQL Server column type.
//
// Text falls back to NVARCHAR(4000) rather than NVARCHAR(MAX) so that text
// columns stay usable in GROUP BY and join predicates.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "FLOAT"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "bool", "boolean":
		return "BIT"
	default:
		return "NVARCHAR(4000)"
	}
}
