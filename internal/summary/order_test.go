package summary

import (
	"database/sql"
	"math/rand"
	"testing"
)

func TestSortJoined(t *testing.T) {
	t.Parallel()

	noDollars := joined(1, "A", 1, 1, 0)
	noDollars.TotalPurchaseDollars = sql.NullFloat64{}

	nullVendor := joined(0, "A", 1, 1, 50)
	nullVendor.VendorNumber = sql.NullInt64{}

	rows := []JoinedRow{
		noDollars,
		joined(2, "B", 1, 1, 50),
		joined(1, "Z", 1, 1, 50),
		joined(1, "C", 1, 1, 50),
		nullVendor,
		joined(9, "A", 1, 1, 500),
	}
	SortJoined(rows)

	type key struct {
		vendor sql.NullInt64
		brand  string
	}
	want := []key{
		{nullI(9), "A"},
		{sql.NullInt64{}, "A"},
		{nullI(1), "C"},
		{nullI(1), "Z"},
		{nullI(2), "B"},
		{nullI(1), "A"},
	}
	for i, w := range want {
		got := key{rows[i].VendorNumber, rows[i].Brand.String}
		if got != w {
			t.Fatalf("row %d = %+v, want %+v", i, got, w)
		}
	}
}

// TestSortJoinedDeterministic shuffles the same rows repeatedly and expects
// one canonical order.
func TestSortJoinedDeterministic(t *testing.T) {
	t.Parallel()

	base := []JoinedRow{
		joined(1, "A", 1, 1, 10),
		joined(1, "B", 1, 1, 10),
		joined(2, "A", 1, 1, 10),
		joined(3, "A", 1, 1, 30),
		joined(4, "A", 1, 1, 20),
	}
	base[1].VendorName = nullS("Another")

	want := append([]JoinedRow(nil), base...)
	SortJoined(want)
	wantSum := Checksum(mustEnrich(t, want))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		rows := append([]JoinedRow(nil), base...)
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		SortJoined(rows)
		if got := Checksum(mustEnrich(t, rows)); got != wantSum {
			t.Fatalf("shuffle %d sorted to a different order", i)
		}
	}

	for i := 1; i < len(want); i++ {
		if want[i].TotalPurchaseDollars.Float64 > want[i-1].TotalPurchaseDollars.Float64 {
			t.Fatalf("row %d breaks non-increasing TotalPurchaseDollars", i)
		}
	}
}

func mustEnrich(t *testing.T, rows []JoinedRow) []VendorBrandSummary {
	t.Helper()
	out, err := Enrich(rows)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	return out
}

func TestSortJoinedNullDollarsAsZero(t *testing.T) {
	t.Parallel()

	credit := joined(1, "A", 1, 1, -5)
	noDollars := joined(2, "A", 1, 1, 0)
	noDollars.TotalPurchaseDollars = sql.NullFloat64{}
	zero := joined(3, "A", 1, 1, 0)

	rows := []JoinedRow{credit, zero, noDollars, joined(4, "A", 1, 1, 7)}
	SortJoined(rows)

	out := mustEnrich(t, rows)
	wantVendors := []int64{4, 2, 3, 1}
	for i, v := range wantVendors {
		if out[i].VendorNumber != v {
			t.Fatalf("row %d vendor = %d, want %d", i, out[i].VendorNumber, v)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].TotalPurchaseDollars > out[i-1].TotalPurchaseDollars {
			t.Fatalf("row %d: %v after %v breaks non-increasing TotalPurchaseDollars",
				i, out[i].TotalPurchaseDollars, out[i-1].TotalPurchaseDollars)
		}
	}
}
