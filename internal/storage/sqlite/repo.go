// Package sqlite implements a SQLite-backed storage.Repository using sqlx
// over database/sql and the cgo-free modernc.org/sqlite driver. Writes run
// inside a transaction with a prepared INSERT; SQLite has no bulk-load API,
// but a single transaction keeps moderate volumes fast.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	gddl "vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	sqliteddl "vendorsummary/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sqlx.DB
	cfg Config
}

// Open opens a SQLite handle limited to a single connection. SQLite allows
// one writer at a time, and every ":memory:" connection is a separate
// database, so one shared connection keeps both cases correct.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// New wraps an already open handle.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// NewRepository opens a SQLite database using cfg.DSN and returns a
// Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := Open(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Query runs a read-only statement and returns all rows.
func (r *Repository) Query(ctx context.Context, query string) (*storage.ResultSet, error) {
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	rs, err := storage.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return rs, nil
}

// CopyFrom inserts rows into table in a single transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		_ = tx.Rollback()
		return n, err
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// ReplaceTable builds td under a staging name, fills it, drops the old table
// and renames staging into place. SQLite DDL is transactional, so the swap
// commits atomically or not at all.
func (r *Repository) ReplaceTable(ctx context.Context, td gddl.TableDef, rows [][]any) (int64, error) {
	staging := gddl.StagingName(td.FQN)
	create, err := sqliteddl.BuildCreateTableSQL(gddl.TableDef{FQN: staging, Columns: td.Columns})
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	for _, stmt := range []string{sqliteddl.BuildDropTableSQL(staging), create} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollback()
			return 0, fmt.Errorf("sqlite: prepare staging %s: %w", staging, err)
		}
	}

	n, err := insertRows(ctx, tx, staging, td.ColumnNames(), rows)
	if err != nil {
		rollback()
		return 0, err
	}

	swap := []string{
		sqliteddl.BuildDropTableSQL(td.FQN),
		sqliteddl.BuildRenameTableSQL(staging, td.FQN),
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollback()
			return 0, fmt.Errorf("sqlite: swap %s: %w", td.FQN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// insertRows inserts rows through one prepared statement on tx.
func insertRows(ctx context.Context, tx *sqlx.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		gddl.QuoteFQN(table, sqliteddl.QuoteIdent),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PreparexContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}
