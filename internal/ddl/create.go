// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// renderer for CREATE TABLE statements parameterized by identifier quoting.
//
// Backend packages (internal/storage/<kind>/ddl) supply their quoting rules
// and type mapping and may wrap the rendered statement (for example T-SQL,
// which lacks CREATE TABLE IF NOT EXISTS).
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier segment.
type Quoter func(ident string) string

// RenderOptions controls dialect-specific parts of the rendered statement.
type RenderOptions struct {
	// Quote quotes identifiers. Nil emits names verbatim.
	Quote Quoter
	// IfNotExists adds IF NOT EXISTS after CREATE TABLE.
	IfNotExists bool
	// Indent prefixes every column line; defaults to two spaces.
	Indent string
}

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Each column is rendered as `<name> <type> [NOT NULL] [DEFAULT <expr>]`.
// Primary-key columns are always NOT NULL and are collected into a trailing
// PRIMARY KEY clause. Default is emitted as raw SQL.
func BuildCreateTableSQL(t TableDef, opts RenderOptions) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	quote := opts.Quote
	if quote == nil {
		quote = func(s string) string { return s }
	}
	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	head := "CREATE TABLE "
	if opts.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return fmt.Sprintf(
		"%s%s (\n%s%s\n);",
		head,
		QuoteFQN(fqn, quote),
		indent,
		strings.Join(cols, ",\n"+indent),
	), nil
}

// QuoteFQN quotes each segment of a possibly schema-qualified name.
func QuoteFQN(fqn string, quote Quoter) string {
	parts := SplitFQN(fqn)
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
