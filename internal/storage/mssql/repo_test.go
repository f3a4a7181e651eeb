package mssql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	gddl "vendorsummary/internal/ddl"
)

// TestCopyFromEmptyRows verifies that CopyFrom short-circuits when no rows
// are provided and does not require a live database connection.
func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()

	r := &Repository{db: nil} // must not be used in this path

	got, err := r.CopyFrom(context.Background(), "dbo.t", []string{"id", "name"}, nil)
	if err != nil {
		t.Fatalf("CopyFrom(nil...) error = %v, want nil", err)
	}
	if got != 0 {
		t.Fatalf("CopyFrom(nil...) = %d, want 0", got)
	}
}

// TestReplaceTableInvalidDef verifies that DDL validation happens before a
// transaction is opened.
func TestReplaceTableInvalidDef(t *testing.T) {
	t.Parallel()

	r := &Repository{db: nil}
	if _, err := r.ReplaceTable(context.Background(), gddl.TableDef{FQN: "dbo.t"}, nil); err == nil {
		t.Fatalf("ReplaceTable(no columns) error = nil, want non-nil")
	}
}

// --- Test driver plumbing for exercising Query and CopyFrom without a real DB

type errDriver struct{}

type errConn struct{}

func (d *errDriver) Open(name string) (driver.Conn, error) {
	return &errConn{}, nil
}

// Prepare is not expected to be called in our tests; if it is, fail loudly.
func (c *errConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("unexpected Prepare call")
}

func (c *errConn) Close() error { return nil }

// Begin is required by driver.Conn; database/sql calls BeginTx when available.
func (c *errConn) Begin() (driver.Tx, error) {
	return nil, errors.New("begin (legacy) should not be called")
}

// BeginTx always fails, to exercise the transaction error paths.
func (c *errConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, errors.New("begin failed")
}

// ExecContext always fails.
func (c *errConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	return nil, errors.New("exec failed")
}

func (c *errConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return nil, errors.New("query failed")
}

var (
	testDriverOnce sync.Once
	testDriverName = "mssql_test_err"
)

// openErrDB registers and opens a test driver that fails BeginTx, ExecContext
// and QueryContext.
func openErrDB(t *testing.T) *sqlx.DB {
	t.Helper()

	testDriverOnce.Do(func() {
		sql.Register(testDriverName, &errDriver{})
	})
	db, err := sqlx.Open(testDriverName, "")
	if err != nil {
		t.Fatalf("sqlx.Open(%q) error = %v", testDriverName, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestQueryPropagatesError(t *testing.T) {
	t.Parallel()

	r := &Repository{db: openErrDB(t)}

	if _, err := r.Query(context.Background(), "SELECT 1"); err == nil || !strings.Contains(err.Error(), "query failed") {
		t.Fatalf("Query() error = %v, want it to contain %q", err, "query failed")
	}
}

// TestBeginTxErrors verifies that CopyFrom and ReplaceTable surface errors
// from BeginTx before any bulk-copy logic runs.
func TestBeginTxErrors(t *testing.T) {
	t.Parallel()

	r := &Repository{db: openErrDB(t)}
	ctx := context.Background()
	columns := []string{"VendorNumber", "Brand"}
	rows := [][]any{{int64(1), "X"}, {int64(2), "Y"}}

	n, err := r.CopyFrom(ctx, "dbo.t", columns, rows)
	if err == nil || !strings.Contains(err.Error(), "begin tx:") {
		t.Fatalf("CopyFrom() error = %v, want it wrapped with 'begin tx:'", err)
	}
	if n != 0 {
		t.Fatalf("CopyFrom() rows = %d, want 0 on error", n)
	}

	td := gddl.TableDef{FQN: "dbo.t", Columns: []gddl.ColumnDef{
		{Name: "VendorNumber", SQLType: "BIGINT"},
		{Name: "Brand", SQLType: "NVARCHAR(4000)"},
	}}
	if _, err := r.ReplaceTable(ctx, td, rows); err == nil || !strings.Contains(err.Error(), "begin tx:") {
		t.Fatalf("ReplaceTable() error = %v, want it wrapped with 'begin tx:'", err)
	}
}

// TestReplaceTableIntegration runs the staging swap against a real SQL
// Server when MSSQL_TEST_DSN is set.
func TestReplaceTableIntegration(t *testing.T) {
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	defer closeFn()

	td := gddl.TableDef{FQN: "dbo.repo_replace_test", Columns: []gddl.ColumnDef{
		{Name: "VendorNumber", SQLType: "BIGINT"},
		{Name: "Brand", SQLType: "NVARCHAR(4000)"},
	}}
	defer func() { _, _ = repo.db.ExecContext(ctx, "IF OBJECT_ID(N'dbo.repo_replace_test', N'U') IS NOT NULL DROP TABLE dbo.repo_replace_test;") }()

	for _, rows := range [][][]any{
		{{int64(1), "alice"}, {int64(2), "bob"}},
		{{int64(3), "carol"}},
	} {
		n, err := repo.ReplaceTable(ctx, td, rows)
		if err != nil {
			t.Fatalf("ReplaceTable() error = %v", err)
		}
		if n != int64(len(rows)) {
			t.Fatalf("ReplaceTable() inserted = %d, want %d", n, len(rows))
		}
	}

	rs, err := repo.Query(ctx, "SELECT COUNT(*) AS n FROM dbo.repo_replace_test")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if rs.Len() != 1 || rs.Rows[0][0] != int64(1) {
		t.Fatalf("row count after replace = %#v, want 1", rs.Rows)
	}
}
