// Package summary computes the per-vendor, per-brand sales summary: three
// grouped reductions over raw purchase, sales and freight facts, a left
// outer join anchored on the purchase aggregate, derived financial ratios,
// and a single materialization of the result.
//
// Each stage is a pure function of its input row set. The only I/O happens
// in an Engine (reading the store) and a Materializer (writing it).
package summary

import (
	"database/sql"
	"errors"
)

var (
	// ErrDuplicateKey reports two output rows sharing (VendorNumber, Brand).
	ErrDuplicateKey = errors.New("summary: duplicate vendor/brand key")
	// ErrCoerce reports a value that cannot be converted to a number.
	ErrCoerce = errors.New("summary: cannot coerce value to float")
	// ErrMissingColumn reports a query result lacking an expected column.
	ErrMissingColumn = errors.New("summary: missing column")
)

// PurchaseFact is one purchase line joined on Brand to the price reference.
type PurchaseFact struct {
	VendorNumber  sql.NullInt64
	VendorName    sql.NullString
	Brand         sql.NullString
	Description   sql.NullString
	PurchasePrice sql.NullFloat64
	Quantity      sql.NullFloat64
	Dollars       sql.NullFloat64
}

// SalesFact is one sales line. The vendor key is named VendorNo in the store.
type SalesFact struct {
	VendorNo      sql.NullInt64
	Brand         sql.NullString
	SalesPrice    sql.NullFloat64
	SalesQuantity sql.NullFloat64
	SalesDollars  sql.NullFloat64
	ExciseTax     sql.NullFloat64
}

// FreightFact is one vendor invoice freight charge.
type FreightFact struct {
	VendorNumber sql.NullInt64
	Freight      sql.NullFloat64
}

// PriceReference is a per-brand volume and list price. Volume is kept as the
// store returned it (number or text) so that MAX follows SQL ordering and
// coercion happens once, during enrichment.
type PriceReference struct {
	Brand  sql.NullString
	Volume any
	Price  sql.NullFloat64
}

// Facts holds the four raw relations.
type Facts struct {
	Purchases []PurchaseFact
	Sales     []SalesFact
	Freight   []FreightFact
	Prices    []PriceReference
}

// PurchaseKey is the grouping key of the purchase aggregate.
type PurchaseKey struct {
	VendorNumber sql.NullInt64
	VendorName   sql.NullString
	Brand        sql.NullString
	Description  sql.NullString
}

// PurchaseAggregate is one row of PurchaseSummary.
type PurchaseAggregate struct {
	PurchaseKey
	PurchasePrice         sql.NullFloat64
	Volume                any
	ActualPrice           sql.NullFloat64
	TotalPurchaseQuantity sql.NullFloat64
	TotalPurchaseDollars  sql.NullFloat64
}

// SalesKey is the grouping key of the sales aggregate.
type SalesKey struct {
	VendorNo int64
	Brand    string
}

// SalesAggregate is one row of SalesSummary.
type SalesAggregate struct {
	SalesPrice         sql.NullFloat64
	TotalSalesQuantity sql.NullFloat64
	TotalSalesDollars  sql.NullFloat64
	TotalExciseTax     sql.NullFloat64
}

// JoinedRow is the purchase aggregate left-joined to sales and freight.
// Sales and freight columns are null when no aggregate row matched.
type JoinedRow struct {
	PurchaseAggregate
	SalesAggregate
	FreightCost sql.NullFloat64
}

// VendorBrandSummary is one enriched output row. Field order matches
// schema.SummaryRelation.
type VendorBrandSummary struct {
	VendorNumber          int64
	VendorName            string
	Brand                 string
	Description           string
	PurchasePrice         float64
	Volume                float64
	ActualPrice           float64
	TotalPurchaseQuantity float64
	TotalPurchaseDollars  float64
	SalesPrice            float64
	TotalSalesQuantity    float64
	TotalSalesDollars     float64
	TotalExciseTax        float64
	FreightCost           float64
	GrossProfit           float64
	ProfitMargin          float64
	StockTurnover         float64
	SalesToPurchaseRatio  float64
}

// Values returns the row as a slice aligned to schema.SummaryRelation.
func (s VendorBrandSummary) Values() []any {
	return []any{
		s.VendorNumber,
		s.VendorName,
		s.Brand,
		s.Description,
		s.PurchasePrice,
		s.Volume,
		s.ActualPrice,
		s.TotalPurchaseQuantity,
		s.TotalPurchaseDollars,
		s.SalesPrice,
		s.TotalSalesQuantity,
		s.TotalSalesDollars,
		s.TotalExciseTax,
		s.FreightCost,
		s.GrossProfit,
		s.ProfitMargin,
		s.StockTurnover,
		s.SalesToPurchaseRatio,
	}
}
