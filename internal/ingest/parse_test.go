package ingest

import (
	"context"
	"errors"
	"reflect"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"vendorsummary/internal/schema"
)

// readAll runs ReadRelation over csv and collects the rows.
func readAll(t *testing.T, csv string, rel schema.Relation, opt ReadOptions) ([][]any, []*RowError, error) {
	t.Helper()

	out := make(chan []any, 64)
	var skipped []*RowError
	n, err := ReadRelation(context.Background(), strings.NewReader(csv), rel, opt, out, func(e *RowError) {
		skipped = append(skipped, e)
	})
	close(out)

	var rows [][]any
	for r := range out {
		rows = append(rows, r)
	}
	if int64(len(rows)) != n {
		t.Fatalf("ReadRelation reported %d rows, sent %d", n, len(rows))
	}
	return rows, skipped, err
}

func TestReadRelation_MapsHeadersAndTypes(t *testing.T) {
	t.Parallel()

	// Extra columns, shuffled order and a BOM on the first header.
	const in = "\uFEFFInventoryId,Brand,Price,Volume,Size\n" +
		"1_HARDERSFIELD_58,58,12.99,750,750mL\n" +
		"2_X,8412,,Unknown,1.75L\n"

	rows, _, err := readAll(t, in, schema.PurchasePricesRelation, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadRelation: %v", err)
	}
	want := [][]any{
		{"58", 750.0, 12.99},
		// Non-numeric volume in a nullable column reads as NULL.
		{"8412", nil, nil},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v\nwant   %#v", rows, want)
	}
}

func TestReadRelation_IntegerColumns(t *testing.T) {
	t.Parallel()

	const in = "VendorNumber,Freight\n105,62.5\n4466.0, 1.25 \n"
	rows, _, err := readAll(t, in, schema.VendorInvoiceRelation, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadRelation: %v", err)
	}
	want := [][]any{{int64(105), 62.5}, {int64(4466), 1.25}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestReadRelation_HeaderMapCommaAndNulls(t *testing.T) {
	t.Parallel()

	const in = "Vendor No;Freight\n7;NULL\n8;n/a\n"
	opt := ReadOptions{
		Comma:      ';',
		HeaderMap:  map[string]string{"Vendor No": "VendorNumber"},
		NullValues: []string{"NULL", "n/a"},
	}
	rows, _, err := readAll(t, in, schema.VendorInvoiceRelation, opt)
	if err != nil {
		t.Fatalf("ReadRelation: %v", err)
	}
	want := [][]any{{int64(7), nil}, {int64(8), nil}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestReadRelation_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantIs  error
		wantMsg string
	}{
		{"empty input", "", nil, "empty input"},
		{"missing column", "VendorNumber\n1\n", ErrMissingColumn, "Freight"},
		{"bad required int", "VendorNumber,Freight\n1,2\nabc,3\n", ErrBadValue, "line 3: column VendorNumber"},
		{"fractional required int", "VendorNumber,Freight\n1.5,3\n", ErrBadValue, "not an integer"},
		{"empty required", "VendorNumber,Freight\n,3\n", ErrBadValue, "required value is empty"},
		{"malformed csv", "VendorNumber,Freight\n1,\"unterminated\n", nil, "vendor_invoice: line"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := readAll(t, tc.in, schema.VendorInvoiceRelation, ReadOptions{})
			if err == nil {
				t.Fatalf("ReadRelation error = nil, want %q", tc.wantMsg)
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Fatalf("errors.Is(%v, %v) = false", err, tc.wantIs)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestReadRelation_SkipBadRows(t *testing.T) {
	t.Parallel()

	const in = "VendorNumber,Freight\n1,2\nx,3\n4,5\n"
	rows, skipped, err := readAll(t, in, schema.VendorInvoiceRelation, ReadOptions{SkipBadRows: true})
	if err != nil {
		t.Fatalf("ReadRelation: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %#v, want 2 rows", rows)
	}
	if len(skipped) != 1 || skipped[0].Line != 3 || skipped[0].Column != "VendorNumber" {
		t.Fatalf("skipped = %+v, want one error at line 3 column VendorNumber", skipped)
	}
}

func TestReadRelation_SkipBadRowsMalformedCSV(t *testing.T) {
	t.Parallel()

	const in = "VendorNumber,Freight\n1,2\n3,4\"x\n5,6\n"
	rows, skipped, err := readAll(t, in, schema.VendorInvoiceRelation, ReadOptions{SkipBadRows: true})
	if err != nil {
		t.Fatalf("ReadRelation: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %#v, want 2 rows", rows)
	}
	if len(skipped) != 1 || skipped[0].Line != 3 {
		t.Fatalf("skipped = %+v, want one error at line 3", skipped)
	}
}

func TestReadRelation_ReaderErrorNotSkipped(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk gone")
	r := io.MultiReader(
		strings.NewReader("VendorNumber,Freight\n1,2\n"),
		iotest.ErrReader(errDisk),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan []any, 8)
	skips := 0
	n, err := ReadRelation(ctx, r, schema.VendorInvoiceRelation, ReadOptions{SkipBadRows: true}, out, func(*RowError) {
		skips++
	})
	if !errors.Is(err, errDisk) {
		t.Fatalf("err = %v, want %v", err, errDisk)
	}
	if skips != 0 {
		t.Fatalf("onSkip called %d times for a reader error", skips)
	}
	if n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
}

func TestReadRelation_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan []any, 1)
	_, err := ReadRelation(ctx, strings.NewReader("VendorNumber,Freight\n1,2\n"), schema.VendorInvoiceRelation, ReadOptions{}, out, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestConvertCell(t *testing.T) {
	t.Parallel()

	nulls := map[string]struct{}{"": {}}
	tests := []struct {
		cell    string
		typ     string
		want    any
		wantErr bool
	}{
		{"42", schema.TypeInt, int64(42), false},
		{"-7.0", schema.TypeInt, int64(-7), false},
		{"3.5", schema.TypeFloat, 3.5, false},
		{"1e3", schema.TypeFloat, 1000.0, false},
		{"", schema.TypeFloat, nil, false},
		{"  Acme  ", schema.TypeText, "  Acme  ", false},
		{"NaN", schema.TypeInt, nil, true},
		{"x", schema.TypeFloat, nil, true},
	}
	for _, tc := range tests {
		got, err := convertCell(tc.cell, tc.typ, nulls)
		if (err != nil) != tc.wantErr || !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("convertCell(%q, %s) = %#v, %v; want %#v, err=%v", tc.cell, tc.typ, got, err, tc.want, tc.wantErr)
		}
	}
}
