// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. ReplaceTable bulk-copies into a staging table and
// swaps it into place with sp_rename inside one transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	msddl "vendorsummary/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sqlx.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mssql: DSN must not be empty")
	}
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sqlx.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// Query runs a read-only statement and returns all rows.
func (r *Repository) Query(ctx context.Context, query string) (*storage.ResultSet, error) {
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mssql: query: %w", err)
	}
	rs, err := storage.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}
	return rs, nil
}

// CopyFrom performs a bulk insert into an existing table.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	n, err := bulkCopy(ctx, tx, table, columns, rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ReplaceTable creates td under a staging name, bulk-copies rows into it,
// drops the previous table and renames staging into place. T-SQL DDL is
// transactional, so the swap commits or rolls back as a unit.
func (r *Repository) ReplaceTable(ctx context.Context, td gddl.TableDef, rows [][]any) (int64, error) {
	staging := gddl.StagingName(td.FQN)
	create, err := msddl.BuildCreateTableSQL(gddl.TableDef{FQN: staging, Columns: td.Columns})
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	for _, stmt := range []string{msddl.BuildDropTableSQL(staging), create} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollback()
			return 0, fmt.Errorf("mssql: prepare staging %s: %w", staging, err)
		}
	}

	var n int64
	if len(rows) > 0 {
		if n, err = bulkCopy(ctx, tx, staging, td.ColumnNames(), rows); err != nil {
			rollback()
			return 0, err
		}
	}

	swap := []string{
		msddl.BuildDropTableSQL(td.FQN),
		msddl.BuildRenameTableSQL(staging, td.FQN),
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollback()
			return 0, fmt.Errorf("mssql: swap %s: %w", td.FQN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// bulkCopy streams rows through a CopyIn statement prepared on tx.
func bulkCopy(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: bulk copy: columns must not be empty")
	}
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if len(rows[i]) != len(columns) {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: length %d != columns length %d", i, len(rows[i]), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
