package summary

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/schema"
)

// MemoryEngine reads the raw relations and performs the reductions and joins
// in Go with hash maps. Sums are accumulated in exact decimal arithmetic and
// rounded to float64 once.
type MemoryEngine struct {
	DB    Querier
	Quote ddl.Quoter
}

// Aggregate implements Engine.
func (e *MemoryEngine) Aggregate(ctx context.Context) ([]JoinedRow, error) {
	facts, err := LoadFacts(ctx, e.DB, e.Quote)
	if err != nil {
		return nil, err
	}
	return JoinSummaries(
		AggregatePurchases(facts.Purchases, facts.Prices),
		AggregateSales(facts.Sales),
		AggregateFreight(facts.Freight),
	), nil
}

// LoadFacts reads the four raw relations from db.
func LoadFacts(ctx context.Context, db Querier, quote ddl.Quoter) (Facts, error) {
	var f Facts
	load := func(rel schema.Relation, each func(get func(string) any) error) error {
		rs, err := db.Query(ctx, selectColumnsSQL(rel, quote))
		if err != nil {
			return fmt.Errorf("load %s: %w", rel.Name, err)
		}
		idx, err := columnIndex(rs, rel.Columns())
		if err != nil {
			return fmt.Errorf("load %s: %w", rel.Name, err)
		}
		for n, raw := range rs.Rows {
			raw := raw
			if err := each(func(c string) any { return raw[idx[c]] }); err != nil {
				return fmt.Errorf("load %s: row %d: %w", rel.Name, n, err)
			}
		}
		return nil
	}

	err := load(schema.PurchasesRelation, func(get func(string) any) error {
		var p PurchaseFact
		var err error
		if p.VendorNumber, err = nullInt(get("VendorNumber")); err != nil {
			return err
		}
		p.VendorName = nullText(get("VendorName"))
		p.Brand = nullText(get("Brand"))
		p.Description = nullText(get("Description"))
		if err := scanFloats(get, map[string]*sql.NullFloat64{
			"PurchasePrice": &p.PurchasePrice,
			"Quantity":      &p.Quantity,
			"Dollars":       &p.Dollars,
		}); err != nil {
			return err
		}
		f.Purchases = append(f.Purchases, p)
		return nil
	})
	if err != nil {
		return Facts{}, err
	}

	err = load(schema.SalesRelation, func(get func(string) any) error {
		var s SalesFact
		var err error
		if s.VendorNo, err = nullInt(get("VendorNo")); err != nil {
			return err
		}
		s.Brand = nullText(get("Brand"))
		if err := scanFloats(get, map[string]*sql.NullFloat64{
			"SalesPrice":    &s.SalesPrice,
			"SalesQuantity": &s.SalesQuantity,
			"SalesDollars":  &s.SalesDollars,
			"ExciseTax":     &s.ExciseTax,
		}); err != nil {
			return err
		}
		f.Sales = append(f.Sales, s)
		return nil
	})
	if err != nil {
		return Facts{}, err
	}

	err = load(schema.VendorInvoiceRelation, func(get func(string) any) error {
		var fr FreightFact
		var err error
		if fr.VendorNumber, err = nullInt(get("VendorNumber")); err != nil {
			return err
		}
		if fr.Freight, err = nullFloat(get("Freight")); err != nil {
			return fmt.Errorf("Freight: %w", err)
		}
		f.Freight = append(f.Freight, fr)
		return nil
	})
	if err != nil {
		return Facts{}, err
	}

	err = load(schema.PurchasePricesRelation, func(get func(string) any) error {
		p := PriceReference{Brand: nullText(get("Brand")), Volume: get("Volume")}
		var err error
		if p.Price, err = nullFloat(get("Price")); err != nil {
			return fmt.Errorf("Price: %w", err)
		}
		f.Prices = append(f.Prices, p)
		return nil
	})
	if err != nil {
		return Facts{}, err
	}
	return f, nil
}

func scanFloats(get func(string) any, dst map[string]*sql.NullFloat64) error {
	for col, p := range dst {
		v, err := nullFloat(get(col))
		if err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
		*p = v
	}
	return nil
}

// sum is a SQL SUM accumulator: NULL until a non-null value arrives.
type sum struct {
	d     decimal.Decimal
	valid bool
}

func (s *sum) add(v sql.NullFloat64) {
	if !v.Valid {
		return
	}
	s.d = s.d.Add(decimal.NewFromFloat(v.Float64))
	s.valid = true
}

func (s sum) value() sql.NullFloat64 {
	if !s.valid {
		return sql.NullFloat64{}
	}
	f, _ := s.d.Float64()
	return sql.NullFloat64{Float64: f, Valid: true}
}

// maxFloat updates a SQL MAX accumulator.
func maxFloat(cur *sql.NullFloat64, v sql.NullFloat64) {
	if v.Valid && (!cur.Valid || v.Float64 > cur.Float64) {
		*cur = v
	}
}

type purchaseAcc struct {
	agg      PurchaseAggregate
	qty, dol sum
}

// AggregatePurchases inner-joins purchases to price references on Brand,
// groups by (VendorNumber, VendorName, Brand, Description) and keeps groups
// whose MAX(PurchasePrice) is strictly positive. A purchase line matching k
// price references contributes k times to the sums, as a relational join
// would. Groups are returned in first-seen order.
func AggregatePurchases(purchases []PurchaseFact, prices []PriceReference) []PurchaseAggregate {
	byBrand := make(map[string][]PriceReference)
	for _, p := range prices {
		if p.Brand.Valid {
			byBrand[p.Brand.String] = append(byBrand[p.Brand.String], p)
		}
	}

	groups := make(map[PurchaseKey]*purchaseAcc)
	var order []PurchaseKey
	for _, p := range purchases {
		if !p.Brand.Valid {
			continue
		}
		refs := byBrand[p.Brand.String]
		if len(refs) == 0 {
			continue
		}
		key := PurchaseKey{
			VendorNumber: p.VendorNumber,
			VendorName:   p.VendorName,
			Brand:        p.Brand,
			Description:  p.Description,
		}
		acc, ok := groups[key]
		if !ok {
			acc = &purchaseAcc{agg: PurchaseAggregate{PurchaseKey: key}}
			groups[key] = acc
			order = append(order, key)
		}
		for _, ref := range refs {
			maxFloat(&acc.agg.PurchasePrice, p.PurchasePrice)
			maxFloat(&acc.agg.ActualPrice, ref.Price)
			if compareSQL(ref.Volume, acc.agg.Volume) > 0 {
				acc.agg.Volume = ref.Volume
			}
			acc.qty.add(p.Quantity)
			acc.dol.add(p.Dollars)
		}
	}

	out := make([]PurchaseAggregate, 0, len(order))
	for _, k := range order {
		acc := groups[k]
		if !acc.agg.PurchasePrice.Valid || acc.agg.PurchasePrice.Float64 <= 0 {
			continue
		}
		acc.agg.TotalPurchaseQuantity = acc.qty.value()
		acc.agg.TotalPurchaseDollars = acc.dol.value()
		out = append(out, acc.agg)
	}
	return out
}

type salesAcc struct {
	price         sql.NullFloat64
	qty, dol, tax sum
}

// AggregateSales groups sales by (VendorNo, Brand). Lines with a null key
// can never satisfy the join predicate and are skipped.
func AggregateSales(sales []SalesFact) map[SalesKey]SalesAggregate {
	accs := make(map[SalesKey]*salesAcc)
	for _, s := range sales {
		if !s.VendorNo.Valid || !s.Brand.Valid {
			continue
		}
		k := SalesKey{VendorNo: s.VendorNo.Int64, Brand: s.Brand.String}
		acc, ok := accs[k]
		if !ok {
			acc = &salesAcc{}
			accs[k] = acc
		}
		maxFloat(&acc.price, s.SalesPrice)
		acc.qty.add(s.SalesQuantity)
		acc.dol.add(s.SalesDollars)
		acc.tax.add(s.ExciseTax)
	}

	out := make(map[SalesKey]SalesAggregate, len(accs))
	for k, acc := range accs {
		out[k] = SalesAggregate{
			SalesPrice:         acc.price,
			TotalSalesQuantity: acc.qty.value(),
			TotalSalesDollars:  acc.dol.value(),
			TotalExciseTax:     acc.tax.value(),
		}
	}
	return out
}

// AggregateFreight sums freight per vendor.
func AggregateFreight(freight []FreightFact) map[int64]sql.NullFloat64 {
	accs := make(map[int64]*sum)
	for _, f := range freight {
		if !f.VendorNumber.Valid {
			continue
		}
		acc, ok := accs[f.VendorNumber.Int64]
		if !ok {
			acc = &sum{}
			accs[f.VendorNumber.Int64] = acc
		}
		acc.add(f.Freight)
	}

	out := make(map[int64]sql.NullFloat64, len(accs))
	for k, acc := range accs {
		out[k] = acc.value()
	}
	return out
}

// JoinSummaries left-joins purchases to sales on (VendorNumber, Brand) and
// then to freight on VendorNumber. The result is sorted with SortJoined.
func JoinSummaries(purchases []PurchaseAggregate, sales map[SalesKey]SalesAggregate, freight map[int64]sql.NullFloat64) []JoinedRow {
	out := make([]JoinedRow, 0, len(purchases))
	for _, p := range purchases {
		row := JoinedRow{PurchaseAggregate: p}
		if p.VendorNumber.Valid {
			row.SalesAggregate = sales[SalesKey{VendorNo: p.VendorNumber.Int64, Brand: p.Brand.String}]
			row.FreightCost = freight[p.VendorNumber.Int64]
		}
		out = append(out, row)
	}
	SortJoined(out)
	return out
}

