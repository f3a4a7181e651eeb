// Package config defines the JSON-serializable configuration model for the
// vendor summary pipeline and the raw-data ingester. Decoding is performed by
// the standard library, with a light Options helper for typed access to
// free-form option bags.
//
// Example:
//
//	{
//	  "job":     "vendor_summary",
//	  "store":   { "kind": "sqlite", "db": { "dsn": "inventory.db" } },
//	  "summary": { "table": "vendor_sales_summary", "engine": "sql" },
//	  "ingest":  { "dir": "data", "options": { "encoding": "windows-1252" } },
//	  "runtime": { "batch_size": 5000, "loader_workers": 4 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Defaults applied by Load and ApplyDefaults.
const (
	DefaultJob           = "vendor_summary"
	DefaultStoreKind     = "sqlite"
	DefaultTable         = "vendor_sales_summary"
	DefaultEngine        = "sql"
	DefaultBatchSize     = 5000
	DefaultLoaderWorkers = 4
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and logs.
	Job string `json:"job"`

	// Store selects the backing relational store.
	Store Store `json:"store"`

	// Summary configures the aggregation run.
	Summary Summary `json:"summary"`

	// Ingest configures loading raw CSV extracts into the store.
	Ingest Ingest `json:"ingest"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Store selects the storage backend holding raw and summary tables.
type Store struct {
	// Kind selects the backend: "sqlite", "postgres" or "mssql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the database connection.
type DBConfig struct {
	// DSN is passed to the driver unchanged (file path for sqlite,
	// postgresql://... for pgx, sqlserver://... for go-mssqldb).
	DSN string `json:"dsn"`
}

// Summary configures the vendor summary run.
type Summary struct {
	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`
	// Engine selects "sql" (push the aggregation to the store) or "memory"
	// (aggregate in process).
	Engine string `json:"engine"`
}

// Ingest configures the CSV loader.
type Ingest struct {
	// Dir is the directory holding the CSV files.
	Dir string `json:"dir"`
	// Files maps relation name to file name relative to Dir. Relations not
	// listed default to "<relation>.csv".
	Files map[string]string `json:"files"`
	// Options holds CSV reader settings:
	//   comma (string), encoding ("utf-8" or "windows-1252"),
	//   normalize (bool, NFC, default true), lazy_quotes (bool),
	//   null_values ([]string), header_map (object, CSV header -> column),
	//   skip_bad_rows (bool, drop unparseable records instead of failing)
	Options Options `json:"options"`
}

// RuntimeConfig controls batching and loader concurrency.
type RuntimeConfig struct {
	LoaderWorkers int `json:"loader_workers"`
	BatchSize     int `json:"batch_size"`
}

// Load reads and decodes the pipeline file at path and applies defaults.
// Unknown fields are rejected so typos surface early.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	ApplyDefaults(&p)
	return p, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(p *Pipeline) {
	if strings.TrimSpace(p.Job) == "" {
		p.Job = DefaultJob
	}
	if strings.TrimSpace(p.Store.Kind) == "" {
		p.Store.Kind = DefaultStoreKind
	}
	if strings.TrimSpace(p.Summary.Table) == "" {
		p.Summary.Table = DefaultTable
	}
	if strings.TrimSpace(p.Summary.Engine) == "" {
		p.Summary.Engine = DefaultEngine
	}
	if p.Ingest.Options == nil {
		p.Ingest.Options = Options{}
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Runtime.LoaderWorkers == 0 {
		p.Runtime.LoaderWorkers = DefaultLoaderWorkers
	}
}

// IngestFile returns the CSV file name configured for relation.
func (i Ingest) IngestFile(relation string) string {
	if f := strings.TrimSpace(i.Files[relation]); f != "" {
		return f
	}
	return relation + ".csv"
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options carries the CSV reader settings of the ingest section, whose keys
// are optional and loosely typed.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
