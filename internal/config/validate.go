// Package config provides configuration models and helpers for the pipeline.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"vendorsummary/internal/datasource"
	"vendorsummary/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "store.kind",
// "ingest.options.encoding"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// KnownStoreKinds lists the backends compiled into the binaries.
var KnownStoreKinds = []string{"mssql", "postgres", "sqlite"}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	p, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.ValidatePipeline(p) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateStore(p.Store)...)
	issues = append(issues, validateSummary(p.Summary)...)
	issues = append(issues, validateIngest(p.Ingest)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateStore validates the backend selection and DSN.
func validateStore(s Store) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.kind",
			Message:  "store.kind must not be empty",
		})
	} else if !contains(KnownStoreKinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.kind",
			Message:  fmt.Sprintf("unknown store kind %q; want one of %s", s.Kind, strings.Join(KnownStoreKinds, ", ")),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.db.dsn",
			Message:  "store.db.dsn must not be empty",
		})
	} else if s.Kind == "sqlite" && strings.TrimSpace(s.DB.DSN) == ":memory:" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "store.db.dsn",
			Message:  "in-memory sqlite database starts empty and is discarded on exit",
		})
	}

	return issues
}

// validateSummary validates the destination table and engine.
func validateSummary(s Summary) []Issue {
	var issues []Issue

	table := strings.TrimSpace(s.Table)
	switch {
	case table == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "summary.table",
			Message:  "summary.table must not be empty",
		})
	case strings.HasPrefix(table, ".") || strings.HasSuffix(table, ".") || strings.Contains(table, ".."):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "summary.table",
			Message:  fmt.Sprintf("summary.table %q has an empty name segment", s.Table),
		})
	}

	switch strings.ToLower(strings.TrimSpace(s.Engine)) {
	case "sql", "memory":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "summary.engine",
			Message:  fmt.Sprintf("unknown engine %q; want sql or memory", s.Engine),
		})
	}

	return issues
}

// validateIngest validates CSV loader settings. Ingest is optional, so an
// empty directory is not an error here; cmd/ingest requires it.
func validateIngest(in Ingest) []Issue {
	var issues []Issue

	if enc := in.Options.String("encoding", ""); enc != "" {
		if _, err := datasource.CanonicalEncoding(enc); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.options.encoding",
				Message:  fmt.Sprintf("unsupported encoding %q; want utf-8 or windows-1252", enc),
			})
		}
	}

	if c, ok := in.Options["comma"]; ok {
		if s, _ := c.(string); len([]rune(s)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.options.comma",
				Message:  "comma must be a single character",
			})
		}
	}

	for src, dst := range in.Options.StringMap("header_map") {
		if !isRawColumn(dst) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "ingest.options.header_map." + src,
				Message:  fmt.Sprintf("target %q is not a column of any input relation", dst),
			})
		}
	}

	for rel, file := range in.Files {
		if _, ok := schema.RawRelation(rel); !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "ingest.files." + rel,
				Message:  fmt.Sprintf("unknown relation %q is ignored", rel),
			})
			continue
		}
		if strings.TrimSpace(file) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "ingest.files." + rel,
				Message:  "empty file name; the default <relation>.csv will be used",
			})
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations
// (negative values, zero-sized batches, etc.).
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes may hurt throughput", r.BatchSize),
		})
	}
	if r.LoaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.loader_workers",
			Message:  "loader_workers must not be negative",
		})
	}

	return issues
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isRawColumn(name string) bool {
	for _, r := range schema.RawRelations() {
		if _, ok := r.Field(name); ok {
			return true
		}
	}
	return false
}
