package summary

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullInt converts a store value to sql.NullInt64. Floats must be integral.
func nullInt(v any) (sql.NullInt64, error) {
	switch t := v.(type) {
	case nil:
		return sql.NullInt64{}, nil
	case int64:
		return sql.NullInt64{Int64: t, Valid: true}, nil
	case int:
		return sql.NullInt64{Int64: int64(t), Valid: true}, nil
	case int32:
		return sql.NullInt64{Int64: int64(t), Valid: true}, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return sql.NullInt64{}, fmt.Errorf("%w: %v is not an integer", ErrCoerce, t)
		}
		return sql.NullInt64{Int64: int64(t), Valid: true}, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return sql.NullInt64{}, fmt.Errorf("%w: %q", ErrCoerce, t)
		}
		return sql.NullInt64{Int64: n, Valid: true}, nil
	case []byte:
		return nullInt(string(t))
	default:
		return sql.NullInt64{}, fmt.Errorf("%w: unsupported type %T", ErrCoerce, v)
	}
}

// nullFloat converts a store value to sql.NullFloat64.
func nullFloat(v any) (sql.NullFloat64, error) {
	if v == nil {
		return sql.NullFloat64{}, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}

// nullText converts a store value to sql.NullString. Numeric keys (Brand is
// an integer in some extracts) are rendered in their shortest decimal form.
func nullText(v any) sql.NullString {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: t, Valid: true}
	case []byte:
		return sql.NullString{String: string(t), Valid: true}
	case int64:
		return sql.NullString{String: strconv.FormatInt(t, 10), Valid: true}
	case float64:
		return sql.NullString{String: strconv.FormatFloat(t, 'f', -1, 64), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprint(t), Valid: true}
	}
}

// toFloat coerces a non-nil numeric or numeric-text value to float64.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrCoerce, t)
		}
		return f, nil
	case []byte:
		return toFloat(string(t))
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrCoerce, v)
	}
}

// compareSQL orders two store values the way SQLite does for MAX:
// NULL < numbers < text, numbers numerically, text bytewise.
func compareSQL(a, b any) int {
	ra, rb := sqlRank(a), sqlRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 2:
		return strings.Compare(nullText(a).String, nullText(b).String)
	}
	return 0
}

func sqlRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string, []byte:
		return 2
	default:
		return 1
	}
}
