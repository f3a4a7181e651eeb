package ddl

import (
	"fmt"
	"strings"

	gddl "vendorsummary/internal/ddl"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for the given table definition with double-quoted identifiers.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	stmt, err := gddl.BuildCreateTableSQL(t, gddl.RenderOptions{
		Quote:       QuoteIdent,
		IfNotExists: true,
	})
	if err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	return stmt, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) string {
	return "DROP TABLE IF EXISTS " + quoteFQN(fqn)
}

// BuildRenameTableSQL renames from to the base name of to. Postgres keeps
// the table in its current schema on rename.
func BuildRenameTableSQL(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteFQN(from), QuoteIdent(gddl.BaseName(to)))
}

// QuoteIdent safely quotes a single identifier segment for Postgres.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// quoteFQN quotes a possibly schema-qualified name like "public.t" to
// "public"."t". Empty segments are dropped.
func quoteFQN(name string) string { return gddl.QuoteFQN(name, QuoteIdent) }
