// Package ddl provides SQLite-specific helpers for generating CREATE and DROP
// TABLE statements from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses double-quoted identifiers: "table", "col".
//   - Emits CREATE TABLE IF NOT EXISTS.
//   - Renders PRIMARY KEY as a separate table constraint.
package ddl

import (
	"fmt"
	"strings"

	gddl "vendorsummary/internal/ddl"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for t:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	stmt, err := gddl.BuildCreateTableSQL(t, gddl.RenderOptions{
		Quote:       QuoteIdent,
		IfNotExists: true,
	})
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return stmt, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) string {
	return "DROP TABLE IF EXISTS " + gddl.QuoteFQN(fqn, QuoteIdent)
}

// BuildRenameTableSQL renames from to the base name of to. SQLite renames
// within the schema of the source table.
func BuildRenameTableSQL(from, to string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s RENAME TO %s",
		gddl.QuoteFQN(from, QuoteIdent),
		QuoteIdent(gddl.BaseName(to)),
	)
}

// QuoteIdent quotes a single identifier segment.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
