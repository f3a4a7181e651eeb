package ddl

import (
	"strings"

	"vendorsummary/internal/schema"
)

// ColumnDef describes a single column in a table definition. Names are
// unquoted; quoting happens at render time in the backend packages.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (optionally schema-qualified, e.g.
// "dbo.vendor_sales_summary") and its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// FromRelation builds a TableDef for rel under the given table name, mapping
// each logical field type through mapType. Required fields become NOT NULL.
func FromRelation(table string, rel schema.Relation, mapType func(string) string) TableDef {
	if strings.TrimSpace(table) == "" {
		table = rel.Name
	}
	cols := make([]ColumnDef, 0, len(rel.Fields))
	for _, f := range rel.Fields {
		cols = append(cols, ColumnDef{
			Name:     f.Name,
			SQLType:  mapType(f.Type),
			Nullable: !f.Required,
		})
	}
	return TableDef{FQN: table, Columns: cols}
}

// StagingName returns the name of the scratch table used while replacing fqn.
// The staging table lives in the same schema as the target.
func StagingName(fqn string) string {
	return strings.TrimSpace(fqn) + "__staging"
}

// SplitFQN splits "schema.table" into its non-empty, trimmed segments.
func SplitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BaseName returns the last segment of fqn ("public.t" -> "t").
func BaseName(fqn string) string {
	parts := SplitFQN(fqn)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
