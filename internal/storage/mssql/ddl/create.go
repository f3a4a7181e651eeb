// Package ddl provides MSSQL-specific helpers for generating CREATE, DROP and
// rename statements from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses SQL Server-style identifier quoting: [schema].[table], [col].
//   - Wraps CREATE TABLE in an IF OBJECT_ID(...) IS NULL guard since T-SQL
//     does not support CREATE TABLE IF NOT EXISTS.
package ddl

import (
	"fmt"
	"strings"

	gddl "vendorsummary/internal/ddl"
)

// BuildCreateTableSQL returns a T-SQL script that creates a table matching
// the provided definition if it does not already exist:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE [NOT NULL] [DEFAULT expr],
//	    [col2] TYPE
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	create, err := gddl.BuildCreateTableSQL(t, gddl.RenderOptions{
		Quote:  QuoteIdent,
		Indent: "  ",
	})
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	fqn := quoteFQN(t.FQN)
	// Indent inner CREATE TABLE for readability.
	create = strings.ReplaceAll(create, "\n", "\n  ")
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  %s\nEND;",
		nstring(fqn), create,
	), nil
}

// BuildDropTableSQL drops fqn when it exists.
func BuildDropTableSQL(fqn string) string {
	q := quoteFQN(fqn)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;", nstring(q), q)
}

// BuildRenameTableSQL renames from to the base name of to via sp_rename,
// which keeps the table in its current schema.
func BuildRenameTableSQL(from, to string) string {
	return fmt.Sprintf(
		"EXEC sp_rename N'%s', N'%s';",
		nstring(quoteFQN(from)), nstring(gddl.BaseName(to)),
	)
}

// QuoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// quoteFQN quotes a possibly schema-qualified table name, e.g.:
//
//	"dbo.Users"   -> [dbo].[Users]
//	"Users"       -> [Users]
func quoteFQN(fqn string) string { return gddl.QuoteFQN(fqn, QuoteIdent) }

// nstring escapes s for use inside an N'...' literal.
func nstring(s string) string { return strings.ReplaceAll(s, "'", "''") }
