// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and SQL dialects with the storage package. It makes the
// following storage kinds available at runtime:
//
//   - "postgres" (vendorsummary/internal/storage/postgres)
//   - "mssql"    (vendorsummary/internal/storage/mssql)
//   - "sqlite"   (vendorsummary/internal/storage/sqlite)
//
// Typical usage (in cmd/vendorsummary/main.go):
//
//	import _ "vendorsummary/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: spec.Store.Kind, DSN: spec.Store.DB.DSN})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
// A binary that supports only a subset of backends can blank-import the
// backend packages it needs directly instead.
package all

import (
	_ "vendorsummary/internal/storage/mssql"
	_ "vendorsummary/internal/storage/postgres"
	_ "vendorsummary/internal/storage/sqlite"
)
