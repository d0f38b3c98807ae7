package runtime

import (
	"os"
	"path/filepath"
)

// Source yields guest binaries. Load runs once at construction and
// again on every Reload, so implementations backed by mutable storage
// should re-read rather than cache.
type Source interface {
	// Load returns the guest binary.
	Load() ([]byte, error)
	// Name identifies the source in errors and logs.
	Name() string
}

// PathSource loads a guest from a file, re-reading it on every load.
type PathSource struct {
	Path string
}

// Load reads the file.
func (s PathSource) Load() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Name returns the file's base name.
func (s PathSource) Name() string {
	return filepath.Base(s.Path)
}

// BytesSource serves a fixed binary under a label. Reload rebuilds
// from the same bytes.
type BytesSource struct {
	Label string
	Data  []byte
}

// Load returns the bytes as given.
func (s BytesSource) Load() ([]byte, error) {
	return s.Data, nil
}

// Name returns the label, or a placeholder when empty.
func (s BytesSource) Name() string {
	if s.Label == "" {
		return "inline.wasm"
	}
	return s.Label
}
