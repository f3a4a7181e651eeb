package summary

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
)

// Engine kinds accepted by NewEngine.
const (
	EngineSQL    = "sql"
	EngineMemory = "memory"
)

// Querier runs a read-only statement. storage.Repository satisfies it.
type Querier interface {
	Query(ctx context.Context, query string) (*storage.ResultSet, error)
}

// Engine performs the aggregation and join stages and returns joined rows
// in canonical order (see SortJoined).
type Engine interface {
	Aggregate(ctx context.Context) ([]JoinedRow, error)
}

// NewEngine returns the engine registered under kind. Quote is the store's
// identifier quoting rule.
func NewEngine(kind string, db Querier, quote ddl.Quoter) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", EngineSQL:
		return &SQLEngine{DB: db, Quote: quote}, nil
	case EngineMemory:
		return &MemoryEngine{DB: db, Quote: quote}, nil
	default:
		return nil, fmt.Errorf("summary: unknown engine %q (want %q or %q)", kind, EngineSQL, EngineMemory)
	}
}

// SQLEngine pushes the aggregation and join down to the store as a single
// three-CTE query.
type SQLEngine struct {
	DB    Querier
	Quote ddl.Quoter
}

// Aggregate implements Engine.
func (e *SQLEngine) Aggregate(ctx context.Context) ([]JoinedRow, error) {
	rs, err := e.DB.Query(ctx, BuildQuery(e.Quote))
	if err != nil {
		return nil, err
	}
	rows, err := joinedFromResult(rs)
	if err != nil {
		return nil, err
	}
	SortJoined(rows)
	return rows, nil
}

// joinedFromResult maps the aggregation query result onto JoinedRow by
// column name.
func joinedFromResult(rs *storage.ResultSet) ([]JoinedRow, error) {
	idx, err := columnIndex(rs, joinedColumns)
	if err != nil {
		return nil, err
	}

	out := make([]JoinedRow, 0, rs.Len())
	for n, raw := range rs.Rows {
		var r JoinedRow
		get := func(col string) any { return raw[idx[col]] }

		if r.VendorNumber, err = nullInt(get("VendorNumber")); err != nil {
			return nil, fmt.Errorf("row %d: VendorNumber: %w", n, err)
		}
		r.VendorName = nullText(get("VendorName"))
		r.Brand = nullText(get("Brand"))
		r.Description = nullText(get("Description"))
		r.Volume = get("Volume")

		floats := []struct {
			col string
			dst *sql.NullFloat64
		}{
			{"PurchasePrice", &r.PurchasePrice},
			{"ActualPrice", &r.ActualPrice},
			{"TotalPurchaseQuantity", &r.TotalPurchaseQuantity},
			{"TotalPurchaseDollars", &r.TotalPurchaseDollars},
			{"SalesPrice", &r.SalesPrice},
			{"TotalSalesQuantity", &r.TotalSalesQuantity},
			{"TotalSalesDollars", &r.TotalSalesDollars},
			{"TotalExciseTax", &r.TotalExciseTax},
			{"FreightCost", &r.FreightCost},
		}
		for _, f := range floats {
			if *f.dst, err = nullFloat(get(f.col)); err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", n, f.col, err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// columnIndex resolves each wanted column to its position in rs.
func columnIndex(rs *storage.ResultSet, want []string) (map[string]int, error) {
	if rs == nil {
		return nil, fmt.Errorf("%w: empty result", ErrMissingColumn)
	}
	idx := make(map[string]int, len(want))
	for _, c := range want {
		i := rs.Index(c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
		idx[c] = i
	}
	for n, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", n, len(row), len(rs.Columns))
		}
	}
	return idx, nil
}
