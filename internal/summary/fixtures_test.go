package summary

import (
	"context"
	"testing"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/schema"
	"vendorsummary/internal/storage/sqlite"
	sqliteddl "vendorsummary/internal/storage/sqlite/ddl"
)

// fixture is the raw data for one in-memory store, keyed by relation name.
type fixture map[string][][]any

// exampleFixture covers the worked examples:
//   - vendor 10 / brand X: the reference row (split over several lines)
//   - vendor 11 / brand Y: max purchase price 0, excluded
//   - vendor 12 / brand Z: no sales and no freight
//   - vendor 13 / brand W: no price reference, dropped by the inner join
func exampleFixture() fixture {
	return fixture{
		schema.Purchases: {
			{int64(10), "Acme Spirits  ", "X", "Rum 750ml", 6.0, 60.0, 300.0},
			{int64(10), "Acme Spirits  ", "X", "Rum 750ml", 5.0, 40.0, 200.0},
			{int64(11), "Zero Co", "Y", "Promo", 0.0, 50.0, 0.0},
			{int64(12), "Solo Ltd", "Z", "Gin 1L", 10.0, 10.0, 100.0},
			{int64(13), "Orphan", "W", "No price", 3.0, 1.0, 3.0},
		},
		schema.Sales: {
			{int64(10), "X", 8.0, 50.0, 400.0, 1.5},
			{int64(10), "X", 8.0, 30.0, 240.0, 1.0},
			{int64(13), "W", 4.0, 1.0, 4.0, 0.1},
		},
		schema.VendorInvoice: {
			{int64(10), 20.0},
			{int64(10), 30.0},
			{int64(13), 9.0},
		},
		schema.PurchasePrices: {
			{"X", 750.0, 7.0},
			{"Y", 500.0, 1.0},
			{"Z", nil, 12.0},
		},
	}
}

// newStore opens a single-connection in-memory SQLite store loaded with f.
func newStore(t *testing.T, f fixture) *sqlite.Repository {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.New(db)

	ctx := context.Background()
	for _, rel := range schema.RawRelations() {
		td := ddl.FromRelation("", rel, sqliteddl.MapType)
		if _, err := repo.ReplaceTable(ctx, td, f[rel.Name]); err != nil {
			t.Fatalf("load %s: %v", rel.Name, err)
		}
	}
	return repo
}
