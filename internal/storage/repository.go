// Package storage contains storage-agnostic contracts used by the summary
// pipeline and the raw-data ingester: a Repository interface, a factory that
// backends register with at init time, and per-kind SQL dialects.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"vendorsummary/internal/ddl"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name ("sqlite", "postgres", "mssql").
	Kind string
	// DSN is passed to the backend driver unchanged.
	DSN string
}

// Repository is the store abstraction shared by all backends.
type Repository interface {
	// Query runs a read-only statement and returns the full tabular result.
	Query(ctx context.Context, query string) (*ResultSet, error)

	// CopyFrom bulk-inserts rows (aligned to columns) into an existing table.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// ReplaceTable atomically replaces table td.FQN with a new table shaped
	// by td and containing rows. Readers see either the previous table or the
	// complete new one, never a partial state. On error the previous table is
	// left untouched.
	ReplaceTable(ctx context.Context, td ddl.TableDef, rows [][]any) (int64, error)

	// Close releases the underlying connection pool.
	Close()
}

// Factory constructs a Repository for a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of registered backend kinds.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResultSet is a fully materialized tabular query result. Rows are aligned to
// Columns; SQL NULL is represented as nil.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Index returns the position of the named column, matching
// case-insensitively (Postgres folds unquoted aliases to lower case), or -1.
func (rs *ResultSet) Index(name string) int {
	for i, c := range rs.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}
