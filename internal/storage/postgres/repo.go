// Package postgres implements a Postgres repository using pgx v5. Bulk writes
// use COPY; ReplaceTable copies into a staging table and swaps it into place
// inside a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	pgddl "vendorsummary/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", pgDetail(err))
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// Query runs a read-only statement and returns all rows. NUMERIC values (the
// result type of SUM over integer columns) are converted to float64 so
// callers see the same Go types as on the other backends.
func (r *Repository) Query(ctx context.Context, query string) (*storage.ResultSet, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", pgDetail(err))
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	rs := &storage.ResultSet{Columns: make([]string, len(fds))}
	for i, fd := range fds {
		rs.Columns[i] = fd.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		for i, v := range vals {
			if vals[i], err = normalizeValue(v); err != nil {
				return nil, fmt.Errorf("postgres: column %s: %w", rs.Columns[i], err)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", pgDetail(err))
	}
	return rs, nil
}

// CopyFrom streams rows into an existing table using COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, pgDetail(err))
	}
	return n, nil
}

// ReplaceTable creates td under a staging name, COPYs rows into it, drops
// the previous table and renames staging into place. Postgres DDL is
// transactional, so concurrent readers keep seeing the old table until
// commit.
func (r *Repository) ReplaceTable(ctx context.Context, td gddl.TableDef, rows [][]any) (int64, error) {
	staging := gddl.StagingName(td.FQN)
	create, err := pgddl.BuildCreateTableSQL(gddl.TableDef{FQN: staging, Columns: td.Columns})
	if err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range []string{pgddl.BuildDropTableSQL(staging), create} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("postgres: prepare staging %s: %w", staging, pgDetail(err))
		}
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, splitFQN(staging), td.ColumnNames(), pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("postgres: copy into %s: %w", staging, pgDetail(err))
		}
	}

	swap := []string{
		pgddl.BuildDropTableSQL(td.FQN),
		pgddl.BuildRenameTableSQL(staging, td.FQN),
	}
	for _, stmt := range swap {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("postgres: swap %s: %w", td.FQN, pgDetail(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", pgDetail(err))
	}
	return n, nil
}

// normalizeValue maps pgx decoded values onto the small set of Go types the
// rest of the module handles: int64, float64, string, bool and nil.
func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case pgtype.Numeric:
		if !t.Valid {
			return nil, nil
		}
		f, err := t.Float64Value()
		if err != nil {
			return nil, err
		}
		if !f.Valid {
			return nil, nil
		}
		return f.Float64, nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case []byte:
		return string(t), nil
	default:
		return v, nil
	}
}

// pgDetail surfaces the server-side detail of a *pgconn.PgError, keeping
// the original error in the chain.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return err
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	return pgx.Identifier(gddl.SplitFQN(fqn))
}
