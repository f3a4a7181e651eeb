package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// SetupLogFile tees the standard logger to path, opened in append mode so
// successive runs accumulate in one file. Parent directories are created.
// An empty path leaves logging on stderr. The returned func restores stderr
// output and closes the file.
func SetupLogFile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}
