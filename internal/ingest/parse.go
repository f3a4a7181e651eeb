package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vendorsummary/internal/schema"
)

// Sentinel errors; test with errors.Is.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrBadValue      = errors.New("bad value")
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ReadOptions controls how CSV records are mapped onto a relation.
type ReadOptions struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// LazyQuotes is passed to csv.Reader.
	LazyQuotes bool
	// HeaderMap renames CSV headers before matching relation fields.
	HeaderMap map[string]string
	// NullValues are cell values read as NULL in addition to "".
	NullValues []string
	// SkipBadRows drops rows that fail to parse instead of aborting.
	SkipBadRows bool
}

// RowError reports a record that could not be converted.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadRelation parses CSV from r and sends one []any per record to out,
// aligned to rel.Columns(). Headers are matched exactly after BOM strip and
// HeaderMap renaming; extra CSV columns are ignored and a missing relation
// column is an error.
//
// Cell conversion by field type:
//   - int: strconv.ParseInt, or ParseFloat when the value is integral ("12.0")
//   - float: strconv.ParseFloat
//   - text: the cell unchanged
//
// Empty and NullValues cells are NULL. An unparseable number is NULL in a
// nullable column; in a required column, and for a NULL required value, the
// record fails with a *RowError. Failed records abort the read unless
// SkipBadRows is set, in which case onSkip (if non-nil) is called and the
// record is dropped. Malformed CSV counts as a failed record; any other read
// error always aborts.
//
// ReadRelation does not close out. It returns the number of records sent.
func ReadRelation(
	ctx context.Context,
	r io.Reader,
	rel schema.Relation,
	opt ReadOptions,
	out chan<- []any,
	onSkip func(*RowError),
) (int64, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("%s: empty input, want a header row", rel.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: read header: %w", rel.Name, err)
	}
	colIx, err := mapHeader(hdr, rel, opt.HeaderMap)
	if err != nil {
		return 0, err
	}

	nulls := make(map[string]struct{}, len(opt.NullValues)+1)
	nulls[""] = struct{}{}
	for _, v := range opt.NullValues {
		nulls[v] = struct{}{}
	}

	var sent int64
	for {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return sent, nil
		}
		if err != nil {
			// Only malformed CSV is a bad row; I/O and decoder errors repeat
			// on every Read and end the load.
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return sent, fmt.Errorf("%s: read: %w", rel.Name, err)
			}
			rerr := &RowError{Line: pe.Line, Err: err}
			if !opt.SkipBadRows {
				return sent, fmt.Errorf("%s: %w", rel.Name, rerr)
			}
			if onSkip != nil {
				onSkip(rerr)
			}
			continue
		}

		row, rerr := convertRecord(rec, rel, colIx, nulls)
		if rerr != nil {
			rerr.Line, _ = cr.FieldPos(0)
			if !opt.SkipBadRows {
				return sent, fmt.Errorf("%s: %w", rel.Name, rerr)
			}
			if onSkip != nil {
				onSkip(rerr)
			}
			continue
		}

		select {
		case out <- row:
			sent++
		case <-ctx.Done():
			return sent, ctx.Err()
		}
	}
}

// mapHeader returns colIx[field] = CSV column index for each relation field.
func mapHeader(hdr []string, rel schema.Relation, headerMap map[string]string) ([]int, error) {
	srcIx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if mapped, ok := headerMap[h]; ok {
			h = mapped
		}
		if _, dup := srcIx[h]; !dup {
			srcIx[h] = i
		}
	}

	colIx := make([]int, len(rel.Fields))
	var missing []string
	for i, f := range rel.Fields {
		ix, ok := srcIx[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		colIx[i] = ix
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", rel.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return colIx, nil
}

func convertRecord(rec []string, rel schema.Relation, colIx []int, nulls map[string]struct{}) ([]any, *RowError) {
	row := make([]any, len(rel.Fields))
	for i, f := range rel.Fields {
		var cell string
		if ix := colIx[i]; ix < len(rec) {
			cell = rec[ix]
		}
		v, err := convertCell(cell, f.Type, nulls)
		if err != nil && f.Required {
			return nil, &RowError{Column: f.Name, Err: err}
		}
		if v == nil && f.Required {
			return nil, &RowError{Column: f.Name, Err: fmt.Errorf("%w: required value is empty", ErrBadValue)}
		}
		row[i] = v
	}
	return row, nil
}

// convertCell returns nil for NULL cells. On a parse failure it returns nil
// together with the error so callers can decide between NULL and rejection.
func convertCell(cell, typ string, nulls map[string]struct{}) (any, error) {
	if _, ok := nulls[cell]; ok {
		return nil, nil
	}
	switch typ {
	case schema.TypeInt:
		s := strings.TrimSpace(cell)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrBadValue, cell)
		}
		return int64(f), nil
	case schema.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrBadValue, cell)
		}
		return f, nil
	default:
		return cell, nil
	}
}
