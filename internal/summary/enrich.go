package summary

import (
	"fmt"
	"math"
	"strings"
)

// Enrich converts joined rows into output rows. It coerces Volume to float,
// trims VendorName, replaces nulls with 0, drops rows whose PurchasePrice is
// not strictly positive and computes the derived ratios. Every ratio with a
// zero denominator is 0. rows is not modified.
//
// Enrich fails with ErrCoerce when Volume holds non-numeric text and with
// ErrDuplicateKey when two rows share (VendorNumber, Brand).
func Enrich(rows []JoinedRow) ([]VendorBrandSummary, error) {
	type key struct {
		vendor int64
		brand  string
	}
	seen := make(map[key]int, len(rows))
	out := make([]VendorBrandSummary, 0, len(rows))

	for i := range rows {
		r := &rows[i]

		vol, err := coerceVolume(r.Volume)
		if err != nil {
			return nil, fmt.Errorf("row %d (vendor %d, brand %q): Volume: %w",
				i, r.VendorNumber.Int64, r.Brand.String, err)
		}

		s := VendorBrandSummary{
			VendorNumber:          r.VendorNumber.Int64,
			VendorName:            strings.TrimSpace(r.VendorName.String),
			Brand:                 r.Brand.String,
			Description:           r.Description.String,
			PurchasePrice:         finite(r.PurchasePrice.Float64),
			Volume:                vol,
			ActualPrice:           finite(r.ActualPrice.Float64),
			TotalPurchaseQuantity: finite(r.TotalPurchaseQuantity.Float64),
			TotalPurchaseDollars:  finite(r.TotalPurchaseDollars.Float64),
			SalesPrice:            finite(r.SalesPrice.Float64),
			TotalSalesQuantity:    finite(r.TotalSalesQuantity.Float64),
			TotalSalesDollars:     finite(r.TotalSalesDollars.Float64),
			TotalExciseTax:        finite(r.TotalExciseTax.Float64),
			FreightCost:           finite(r.FreightCost.Float64),
		}
		if s.PurchasePrice <= 0 {
			continue
		}

		k := key{vendor: s.VendorNumber, brand: s.Brand}
		if prev, dup := seen[k]; dup {
			p := &rows[prev]
			return nil, fmt.Errorf("%w: vendor %d, brand %q (rows %d and %d: name %q vs %q, description %q vs %q)",
				ErrDuplicateKey, s.VendorNumber, s.Brand, prev, i,
				p.VendorName.String, r.VendorName.String, p.Description.String, r.Description.String)
		}
		seen[k] = i

		s.GrossProfit = finite(s.TotalSalesDollars - s.TotalPurchaseDollars)
		s.ProfitMargin = finite(safeRatio(s.GrossProfit, s.TotalSalesDollars) * 100)
		s.StockTurnover = safeRatio(s.TotalSalesQuantity, s.TotalPurchaseQuantity)
		s.SalesToPurchaseRatio = safeRatio(s.TotalSalesDollars, s.TotalPurchaseDollars)
		out = append(out, s)
	}
	return out, nil
}

// safeRatio returns num/den, or 0 when den is zero or the quotient is not
// finite.
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

// finite maps NaN and ±Inf to 0.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// coerceVolume converts a reference volume to float64. NULL becomes 0;
// text must parse as a number.
func coerceVolume(v any) (float64, error) {
	if v == nil {
		return 0, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return finite(f), nil
}
