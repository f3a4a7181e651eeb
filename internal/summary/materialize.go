package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/schema"
)

// Materializer durably writes the summary rows to table, replacing any
// previous contents. Readers must observe either the old or the new table.
type Materializer interface {
	Materialize(ctx context.Context, rows []VendorBrandSummary, table string) error
}

// TableReplacer is the part of storage.Repository a TableMaterializer needs.
type TableReplacer interface {
	ReplaceTable(ctx context.Context, td ddl.TableDef, rows [][]any) (int64, error)
}

// TableMaterializer writes rows through a store's atomic ReplaceTable.
type TableMaterializer struct {
	Store TableReplacer
	// MapType maps schema types to column types of the store.
	MapType func(kind string) string
}

// Materialize implements Materializer. An empty table name selects
// schema.SummaryTable.
func (m *TableMaterializer) Materialize(ctx context.Context, rows []VendorBrandSummary, table string) error {
	if strings.TrimSpace(table) == "" {
		table = schema.SummaryTable
	}
	if m.MapType == nil {
		return fmt.Errorf("materialize %s: MapType must be set", table)
	}

	td := ddl.FromRelation(table, schema.SummaryRelation, m.MapType)
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}

	n, err := m.Store.ReplaceTable(ctx, td, values)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("materialize %s: wrote %d rows, want %d", table, n, len(rows))
	}
	log.Printf("summary: materialized table=%s rows=%d", table, n)
	return nil
}
