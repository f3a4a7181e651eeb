package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vendorsummary/internal/config"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/storage"
)

// env returns a getenv backed by m.
func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := FirstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Fatalf("FirstNonEmpty = %q, want b", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q, want empty", got)
	}
}

func TestLoadPipeline_Precedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{"store": {"kind": "postgres", "db": {"dsn": "postgresql://file"}}, "summary": {"engine": "memory"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name      string
		o         Overrides
		env       map[string]string
		wantKind  string
		wantDSN   string
		wantEng   string
		wantTable string
	}{
		{"file values", Overrides{}, nil, "postgres", "postgresql://file", "memory", config.DefaultTable},
		{"env beats file", Overrides{}, map[string]string{EnvDSN: "postgresql://env", EnvStoreKind: "mssql"}, "mssql", "postgresql://env", "memory", config.DefaultTable},
		{"flag beats env", Overrides{DSN: "inventory.db", Store: "sqlite", Engine: "sql", Table: "out"}, map[string]string{EnvDSN: "postgresql://env"}, "sqlite", "inventory.db", "sql", "out"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := LoadPipeline(path, tc.o, env(tc.env))
			if err != nil {
				t.Fatalf("LoadPipeline: %v", err)
			}
			if p.Store.Kind != tc.wantKind || p.Store.DB.DSN != tc.wantDSN ||
				p.Summary.Engine != tc.wantEng || p.Summary.Table != tc.wantTable {
				t.Fatalf("pipeline = %+v", p)
			}
		})
	}
}

func TestLoadPipeline_NoFile(t *testing.T) {
	t.Parallel()

	p, err := LoadPipeline("", Overrides{DSN: "inventory.db", Dir: "data"}, env(nil))
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if p.Store.Kind != config.DefaultStoreKind || p.Ingest.Dir != "data" || p.Runtime.BatchSize != config.DefaultBatchSize {
		t.Fatalf("pipeline = %+v", p)
	}

	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "nope.json"), Overrides{}, env(nil)); err == nil {
		t.Fatalf("LoadPipeline(missing) error = nil")
	}
}

func TestCheckPipeline(t *testing.T) {
	t.Parallel()

	p, _ := LoadPipeline("", Overrides{}, env(nil)) // no DSN
	var buf bytes.Buffer
	if err := CheckPipeline(p, &buf); err == nil {
		t.Fatalf("CheckPipeline(no dsn) error = nil")
	}
	if !strings.Contains(buf.String(), "error: store.db.dsn:") {
		t.Fatalf("output = %q, want dsn error line", buf.String())
	}

	p.Store.DB.DSN = "inventory.db"
	buf.Reset()
	if err := CheckPipeline(p, &buf); err != nil {
		t.Fatalf("CheckPipeline(valid) = %v; output %q", err, buf.String())
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv(missing) = %v, want nil", err)
	}

	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VENDORSUMMARY_APP_TEST=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("VENDORSUMMARY_APP_TEST", "")
	os.Unsetenv("VENDORSUMMARY_APP_TEST")
	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("VENDORSUMMARY_APP_TEST"); got != "from-file" {
		t.Fatalf("env = %q, want from-file", got)
	}
}

func TestSetupMetrics_DisabledCases(t *testing.T) {
	for _, o := range []MetricsOptions{
		{},
		{Backend: "none"},
		{Backend: "graphite"},
		{Backend: "datadog"}, // no address anywhere
	} {
		flush := SetupMetrics(o, env(nil))
		if flush == nil {
			t.Fatalf("SetupMetrics(%+v) returned nil flush", o)
		}
		flush()
	}
}

func TestSetupMetrics_Pushgateway(t *testing.T) {
	defer metrics.SetBackend(nopForTest{})

	flush := SetupMetrics(MetricsOptions{Job: "vendor_summary"}, env(map[string]string{
		EnvMetricsBackend: "pushgateway",
		EnvPushgatewayURL: "http://127.0.0.1:1",
	}))
	if flush == nil {
		t.Fatalf("SetupMetrics returned nil flush")
	}
	// Flush fails against a closed port; the error is only logged.
	flush()
}

type nopForTest struct{}

func (nopForTest) IncCounter(string, float64, metrics.Labels)       {}
func (nopForTest) ObserveHistogram(string, float64, metrics.Labels) {}
func (nopForTest) SetGauge(string, float64, metrics.Labels)         {}
func (nopForTest) Flush() error                                     { return nil }

func TestOpenStore_SQLite(t *testing.T) {
	t.Parallel()

	p, _ := LoadPipeline("", Overrides{DSN: ":memory:"}, env(nil))
	repo, d, err := OpenStore(context.Background(), p)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer repo.Close()
	if d.Quote == nil || d.MapType == nil {
		t.Fatalf("dialect incomplete: %+v", d)
	}

	p.Store.Kind = "oracle"
	if _, _, err := OpenStore(context.Background(), p); err == nil {
		t.Fatalf("OpenStore(oracle) error = nil")
	}
}

// The validator's store kinds must match the backends linked into the
// binaries.
func TestKnownStoreKindsRegistered(t *testing.T) {
	t.Parallel()

	if got := storage.ListKinds(); !reflect.DeepEqual(got, config.KnownStoreKinds) {
		t.Fatalf("storage.ListKinds() = %v, config.KnownStoreKinds = %v", got, config.KnownStoreKinds)
	}
}
