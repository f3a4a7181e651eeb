package sqlite

import (
	"context"
	"strings"
	"testing"

	gddl "vendorsummary/internal/ddl"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	db, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if _, err := r.db.ExecContext(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func summaryDef(table string) gddl.TableDef {
	return gddl.TableDef{
		FQN: table,
		Columns: []gddl.ColumnDef{
			{Name: "VendorNumber", SQLType: "INTEGER"},
			{Name: "Brand", SQLType: "TEXT"},
			{Name: "GrossProfit", SQLType: "REAL"},
		},
	}
}

// TestQuery_TypesAndNulls checks that Query returns typed values and nil for
// SQL NULL.
func TestQuery_TypesAndNulls(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE t (i INTEGER, f REAL, s TEXT)`)
	if _, err := r.CopyFrom(ctx, "t", []string{"i", "f", "s"}, [][]any{
		{int64(1), 2.5, "x"},
		{nil, nil, nil},
	}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	rs, err := r.Query(ctx, `SELECT i, f, s FROM t ORDER BY i IS NULL, i`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if strings.Join(rs.Columns, ",") != "i,f,s" {
		t.Fatalf("columns = %v", rs.Columns)
	}
	if rs.Len() != 2 {
		t.Fatalf("rows = %d, want 2", rs.Len())
	}
	if rs.Rows[0][0] != int64(1) || rs.Rows[0][1] != 2.5 || rs.Rows[0][2] != "x" {
		t.Fatalf("row0 = %#v", rs.Rows[0])
	}
	for i, v := range rs.Rows[1] {
		if v != nil {
			t.Fatalf("row1[%d] = %#v, want nil", i, v)
		}
	}
}

func TestQuery_Error(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	_, err := r.Query(context.Background(), `SELECT * FROM missing_relation`)
	if err == nil || !strings.HasPrefix(err.Error(), "sqlite: query:") {
		t.Fatalf("Query error = %v, want sqlite: query: prefix", err)
	}
}

func TestCopyFrom_Validation(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	if _, err := r.CopyFrom(ctx, "t", nil, [][]any{{1}}); err == nil {
		t.Fatalf("CopyFrom(no columns) error = nil")
	}
	if n, err := r.CopyFrom(ctx, "t", []string{"a"}, nil); err != nil || n != 0 {
		t.Fatalf("CopyFrom(no rows) = %d, %v; want 0, nil", n, err)
	}

	mustExec(t, r, `CREATE TABLE t (a INTEGER, b INTEGER)`)
	if _, err := r.CopyFrom(ctx, "t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatalf("CopyFrom(short row) error = nil")
	}
	rs, err := r.Query(ctx, `SELECT COUNT(*) FROM t`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Rows[0][0] != int64(0) {
		t.Fatalf("failed CopyFrom left %v rows, want 0", rs.Rows[0][0])
	}
}

// TestReplaceTable_CreatesAndReplaces verifies create-or-replace semantics:
// the second call fully supersedes the first and no staging table remains.
func TestReplaceTable_CreatesAndReplaces(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	td := summaryDef("vendor_sales_summary")

	n, err := r.ReplaceTable(ctx, td, [][]any{
		{int64(1), "A", 10.0},
		{int64(2), "B", -5.0},
	})
	if err != nil || n != 2 {
		t.Fatalf("first ReplaceTable = %d, %v; want 2, nil", n, err)
	}

	n, err = r.ReplaceTable(ctx, td, [][]any{{int64(3), "C", 1.5}})
	if err != nil || n != 1 {
		t.Fatalf("second ReplaceTable = %d, %v; want 1, nil", n, err)
	}

	rs, err := r.Query(ctx, `SELECT "VendorNumber", "Brand", "GrossProfit" FROM vendor_sales_summary`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Len() != 1 || rs.Rows[0][0] != int64(3) || rs.Rows[0][1] != "C" {
		t.Fatalf("rows = %#v, want only vendor 3", rs.Rows)
	}

	rs, err = r.Query(ctx, `SELECT name FROM sqlite_master WHERE name LIKE '%staging%'`)
	if err != nil {
		t.Fatalf("Query sqlite_master: %v", err)
	}
	if rs.Len() != 0 {
		t.Fatalf("staging table left behind: %v", rs.Rows)
	}
}

// TestReplaceTable_FailureKeepsPrevious verifies a failed replace rolls back
// and the previous materialization stays visible.
func TestReplaceTable_FailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	td := summaryDef("vendor_sales_summary")

	if _, err := r.ReplaceTable(ctx, td, [][]any{{int64(1), "A", 10.0}}); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}

	// NOT NULL violation on Brand aborts the second replace mid-insert.
	_, err := r.ReplaceTable(ctx, td, [][]any{
		{int64(2), "B", 1.0},
		{int64(3), nil, 1.0},
	})
	if err == nil {
		t.Fatalf("ReplaceTable with NULL in NOT NULL column: error = nil")
	}

	rs, err := r.Query(ctx, `SELECT "VendorNumber" FROM vendor_sales_summary`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Len() != 1 || rs.Rows[0][0] != int64(1) {
		t.Fatalf("rows after failed replace = %#v, want previous contents", rs.Rows)
	}
}

func TestReplaceTable_EmptyRowsCreatesEmptyTable(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	if _, err := r.ReplaceTable(ctx, summaryDef("empty_t"), nil); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	rs, err := r.Query(ctx, `SELECT COUNT(*) FROM empty_t`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Rows[0][0] != int64(0) {
		t.Fatalf("count = %v, want 0", rs.Rows[0][0])
	}
}
