package summary

import (
	"database/sql"
	"sort"
	"strings"
)

// SortJoined orders rows by TotalPurchaseDollars descending, then by
// VendorNumber, Brand, VendorName and Description ascending. A NULL dollar
// total compares as 0, matching the value Enrich writes for it; NULL tiebreak
// keys sort before every value. The sort is stable, so fully equal keys keep
// input order.
func SortJoined(rows []JoinedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessJoined(&rows[i], &rows[j])
	})
}

func lessJoined(a, b *JoinedRow) bool {
	if c := cmpFloatDesc(a.TotalPurchaseDollars, b.TotalPurchaseDollars); c != 0 {
		return c < 0
	}
	if c := cmpInt(a.VendorNumber, b.VendorNumber); c != 0 {
		return c < 0
	}
	for _, pair := range [][2]sql.NullString{
		{a.Brand, b.Brand},
		{a.VendorName, b.VendorName},
		{a.Description, b.Description},
	} {
		if c := cmpText(pair[0], pair[1]); c != 0 {
			return c < 0
		}
	}
	return false
}

func cmpFloatDesc(a, b sql.NullFloat64) int {
	x, y := finite(a.Float64), finite(b.Float64)
	if !a.Valid {
		x = 0
	}
	if !b.Valid {
		y = 0
	}
	switch {
	case x > y:
		return -1
	case x < y:
		return 1
	}
	return 0
}

func cmpInt(a, b sql.NullInt64) int {
	switch {
	case a.Valid != b.Valid:
		if a.Valid {
			return 1
		}
		return -1
	case a.Int64 < b.Int64:
		return -1
	case a.Int64 > b.Int64:
		return 1
	}
	return 0
}

func cmpText(a, b sql.NullString) int {
	if a.Valid != b.Valid {
		if a.Valid {
			return 1
		}
		return -1
	}
	return strings.Compare(a.String, b.String)
}
