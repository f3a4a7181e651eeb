package datasource

import (
	"io"
	"strings"
	"testing"

	"golang.org/x/text/transform"
)

func TestCanonicalEncoding(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":             EncodingUTF8,
		"UTF8":         EncodingUTF8,
		" utf-8 ":      EncodingUTF8,
		"cp1252":       EncodingWindows1252,
		"Windows-1252": EncodingWindows1252,
	}
	for in, want := range cases {
		got, err := CanonicalEncoding(in)
		if err != nil || got != want {
			t.Fatalf("CanonicalEncoding(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := CanonicalEncoding("latin2"); err == nil {
		t.Fatalf("CanonicalEncoding(latin2) error = nil, want non-nil")
	}
}

func TestTransformer_NopForPlainUTF8(t *testing.T) {
	t.Parallel()

	tr, err := Transformer("utf-8", false)
	if err != nil {
		t.Fatalf("Transformer: %v", err)
	}
	if tr != transform.Nop {
		t.Fatalf("Transformer(utf-8, false) = %T, want transform.Nop", tr)
	}
}

func TestDecode_ChainsDecodingAndNFC(t *testing.T) {
	t.Parallel()

	// 0xE9 is é and 0x80 is the euro sign in windows-1252.
	src := io.NopCloser(strings.NewReader("Ros\xe9 \x80"))
	rc, err := Decode(src, "windows-1252", true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "Rosé €" {
		t.Fatalf("decoded = %q, want %q", got, "Rosé €")
	}
}
