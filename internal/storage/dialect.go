package storage

import (
	"fmt"
	"sync"

	"vendorsummary/internal/ddl"
)

// Dialect captures the SQL differences between backends that callers above
// the storage layer need when they build statements themselves.
type Dialect struct {
	// Quote quotes a single identifier segment.
	Quote ddl.Quoter
	// MapType maps a logical column type (schema.Type*) to a SQL type.
	MapType func(kind string) string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("no dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}
