// Package schema declares the relations the vendor summary pipeline reads and
// writes. Column names match the source dataset exactly because they are used
// verbatim as join keys in the aggregation query.
package schema

// Logical column types. Backend ddl packages map these to dialect types.
const (
	TypeInt   = "int"
	TypeFloat = "float"
	TypeText  = "text"
)

// Relation names.
const (
	Purchases      = "purchases"
	Sales          = "sales"
	VendorInvoice  = "vendor_invoice"
	PurchasePrices = "purchase_prices"

	// SummaryTable is the default destination of the materialized summary.
	SummaryTable = "vendor_sales_summary"
)

// Field is a single column of a relation.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

// Relation is an ordered set of fields under a table name.
type Relation struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Columns returns the field names in declaration order.
func (r Relation) Columns() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Name
	}
	return out
}

// Field returns the named field and whether it exists.
func (r Relation) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PurchasesRelation holds one row per purchase line.
var PurchasesRelation = Relation{
	Name: Purchases,
	Fields: []Field{
		{Name: "VendorNumber", Type: TypeInt, Required: true},
		{Name: "VendorName", Type: TypeText},
		{Name: "Brand", Type: TypeText, Required: true},
		{Name: "Description", Type: TypeText},
		{Name: "PurchasePrice", Type: TypeFloat},
		{Name: "Quantity", Type: TypeFloat},
		{Name: "Dollars", Type: TypeFloat},
	},
}

// SalesRelation holds one row per sales line. The vendor key is named
// VendorNo in the source data.
var SalesRelation = Relation{
	Name: Sales,
	Fields: []Field{
		{Name: "VendorNo", Type: TypeInt, Required: true},
		{Name: "Brand", Type: TypeText, Required: true},
		{Name: "SalesPrice", Type: TypeFloat},
		{Name: "SalesQuantity", Type: TypeFloat},
		{Name: "SalesDollars", Type: TypeFloat},
		{Name: "ExciseTax", Type: TypeFloat},
	},
}

// VendorInvoiceRelation holds freight charges per vendor invoice.
var VendorInvoiceRelation = Relation{
	Name: VendorInvoice,
	Fields: []Field{
		{Name: "VendorNumber", Type: TypeInt, Required: true},
		{Name: "Freight", Type: TypeFloat},
	},
}

// PurchasePricesRelation is the per-brand price reference.
var PurchasePricesRelation = Relation{
	Name: PurchasePrices,
	Fields: []Field{
		{Name: "Brand", Type: TypeText, Required: true},
		{Name: "Volume", Type: TypeFloat},
		{Name: "Price", Type: TypeFloat},
	},
}

// SummaryRelation is the shape of the materialized vendor_sales_summary
// table, in output column order.
var SummaryRelation = Relation{
	Name: SummaryTable,
	Fields: []Field{
		{Name: "VendorNumber", Type: TypeInt, Required: true},
		{Name: "VendorName", Type: TypeText, Required: true},
		{Name: "Brand", Type: TypeText, Required: true},
		{Name: "Description", Type: TypeText, Required: true},
		{Name: "PurchasePrice", Type: TypeFloat, Required: true},
		{Name: "Volume", Type: TypeFloat, Required: true},
		{Name: "ActualPrice", Type: TypeFloat, Required: true},
		{Name: "TotalPurchaseQuantity", Type: TypeFloat, Required: true},
		{Name: "TotalPurchaseDollars", Type: TypeFloat, Required: true},
		{Name: "SalesPrice", Type: TypeFloat, Required: true},
		{Name: "TotalSalesQuantity", Type: TypeFloat, Required: true},
		{Name: "TotalSalesDollars", Type: TypeFloat, Required: true},
		{Name: "TotalExciseTax", Type: TypeFloat, Required: true},
		{Name: "FreightCost", Type: TypeFloat, Required: true},
		{Name: "GrossProfit", Type: TypeFloat, Required: true},
		{Name: "ProfitMargin", Type: TypeFloat, Required: true},
		{Name: "StockTurnover", Type: TypeFloat, Required: true},
		{Name: "SalesToPurchaseRatio", Type: TypeFloat, Required: true},
	},
}

// RawRelations lists the inputs in ingest order.
func RawRelations() []Relation {
	return []Relation{
		PurchasesRelation,
		SalesRelation,
		VendorInvoiceRelation,
		PurchasePricesRelation,
	}
}

// RawRelation looks up an input relation by table name.
func RawRelation(name string) (Relation, bool) {
	for _, r := range RawRelations() {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}
