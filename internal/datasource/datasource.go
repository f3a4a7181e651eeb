// Package datasource abstracts where raw extracts come from and how their
// bytes are decoded into UTF-8 text before parsing.
package datasource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source opens a readable stream of UTF-8 text.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Supported encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// CanonicalEncoding maps accepted spellings onto EncodingUTF8 or
// EncodingWindows1252. An empty name means UTF-8.
func CanonicalEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("datasource: unsupported encoding %q", name)
	}
}

// Transformer returns the byte transformation applied to a raw stream:
// decoding from encoding to UTF-8, then NFC normalization when nfc is set.
// It returns transform.Nop for UTF-8 input without normalization.
func Transformer(encoding string, nfc bool) (transform.Transformer, error) {
	enc, err := CanonicalEncoding(encoding)
	if err != nil {
		return nil, err
	}
	var chain []transform.Transformer
	if enc == EncodingWindows1252 {
		chain = append(chain, charmap.Windows1252.NewDecoder())
	}
	if nfc {
		chain = append(chain, norm.NFC)
	}
	switch len(chain) {
	case 0:
		return transform.Nop, nil
	case 1:
		return chain[0], nil
	default:
		return transform.Chain(chain...), nil
	}
}

// Decode wraps rc so reads yield transformed text. Close is forwarded to rc.
func Decode(rc io.ReadCloser, encoding string, nfc bool) (io.ReadCloser, error) {
	t, err := Transformer(encoding, nfc)
	if err != nil {
		return nil, err
	}
	if t == transform.Nop {
		return rc, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{transform.NewReader(rc, t), rc}, nil
}
