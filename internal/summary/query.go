package summary

import (
	"strings"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/schema"
)

// joinedColumns lists the columns of the aggregation query in result order.
var joinedColumns = []string{
	"VendorNumber",
	"VendorName",
	"Brand",
	"Description",
	"PurchasePrice",
	"Volume",
	"ActualPrice",
	"TotalPurchaseQuantity",
	"TotalPurchaseDollars",
	"SalesPrice",
	"TotalSalesQuantity",
	"TotalSalesDollars",
	"TotalExciseTax",
	"FreightCost",
}

// queryTemplate is the three-CTE aggregation. Identifiers are written as
// {Name} and quoted for the target dialect by BuildQuery.
const queryTemplate = `WITH {FreightSummary} AS (
    SELECT
        {VendorNumber},
        SUM({Freight}) AS {FreightCost}
    FROM {vendor_invoice}
    GROUP BY {VendorNumber}
),
{PurchaseSummary} AS (
    SELECT
        p.{VendorNumber},
        p.{VendorName},
        p.{Brand},
        p.{Description},
        MAX(p.{PurchasePrice}) AS {PurchasePrice},
        MAX(pp.{Volume}) AS {Volume},
        MAX(pp.{Price}) AS {ActualPrice},
        SUM(p.{Quantity}) AS {TotalPurchaseQuantity},
        SUM(p.{Dollars}) AS {TotalPurchaseDollars}
    FROM {purchases} p
    JOIN {purchase_prices} pp
        ON p.{Brand} = pp.{Brand}
    GROUP BY p.{VendorNumber}, p.{VendorName}, p.{Brand}, p.{Description}
    HAVING MAX(p.{PurchasePrice}) > 0
),
{SalesSummary} AS (
    SELECT
        {VendorNo},
        {Brand},
        MAX({SalesPrice}) AS {SalesPrice},
        SUM({SalesQuantity}) AS {TotalSalesQuantity},
        SUM({SalesDollars}) AS {TotalSalesDollars},
        SUM({ExciseTax}) AS {TotalExciseTax}
    FROM {sales}
    GROUP BY {VendorNo}, {Brand}
)
SELECT
    ps.{VendorNumber},
    ps.{VendorName},
    ps.{Brand},
    ps.{Description},
    ps.{PurchasePrice},
    ps.{Volume},
    ps.{ActualPrice},
    ps.{TotalPurchaseQuantity},
    ps.{TotalPurchaseDollars},
    ss.{SalesPrice},
    ss.{TotalSalesQuantity},
    ss.{TotalSalesDollars},
    ss.{TotalExciseTax},
    fs.{FreightCost}
FROM {PurchaseSummary} ps
LEFT JOIN {SalesSummary} ss
    ON ps.{VendorNumber} = ss.{VendorNo}
    AND ps.{Brand} = ss.{Brand}
LEFT JOIN {FreightSummary} fs
    ON ps.{VendorNumber} = fs.{VendorNumber}
ORDER BY ps.{TotalPurchaseDollars} DESC, ps.{VendorNumber}, ps.{Brand}, ps.{VendorName}, ps.{Description}`

// BuildQuery renders the aggregation query with identifiers quoted by quote.
// A nil quote leaves identifiers bare.
func BuildQuery(quote ddl.Quoter) string {
	if quote == nil {
		quote = func(s string) string { return s }
	}
	var b strings.Builder
	rest := queryTemplate
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			b.WriteString(rest)
			break
		}
		j := strings.IndexByte(rest[i:], '}')
		b.WriteString(rest[:i])
		b.WriteString(quote(rest[i+1 : i+j]))
		rest = rest[i+j+1:]
	}
	return b.String()
}

// selectColumnsSQL renders a plain projection of rel for the memory engine.
func selectColumnsSQL(rel schema.Relation, quote ddl.Quoter) string {
	if quote == nil {
		quote = func(s string) string { return s }
	}
	cols := rel.Columns()
	for i, c := range cols {
		cols[i] = quote(c)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + ddl.QuoteFQN(rel.Name, quote)
}
