// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"vendorsummary/internal/datasource"
)

// Local opens one file from local disk and decodes it to UTF-8.
type Local struct {
	path     string
	encoding string
	nfc      bool
}

// NewLocal returns a Local source for path that reads UTF-8 and applies NFC
// normalization. Use WithEncoding to change either.
func NewLocal(path string) *Local { return &Local{path: path, nfc: true} }

// WithEncoding sets the source encoding ("utf-8" or "windows-1252") and
// whether text is NFC-normalized. It returns l for chaining.
func (l *Local) WithEncoding(encoding string, nfc bool) *Local {
	l.encoding = encoding
	l.nfc = nfc
	return l
}

// Path returns the file path.
func (l *Local) Path() string { return l.path }

// Open opens the file and wraps it with the configured decoder.
//
// A canceled context short-circuits without touching the filesystem.
// Filesystem errors are wrapped with the path and still satisfy
// errors.Is(err, os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	rc, err := datasource.Decode(f, l.encoding, l.nfc)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return rc, nil
}
