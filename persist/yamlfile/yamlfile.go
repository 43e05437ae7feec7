// Package yamlfile implements tweak.Persister on top of a single YAML file.
//
// The file looks like:
//
//	overrides:
//	  layout.cornerRadius:
//	    kind: int
//	    value: "8"
//
// Every save rewrites the whole file atomically (temp file + rename), so a
// crash mid-write never leaves a truncated document behind. A missing file
// means "no overrides yet".
package yamlfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/evan-idocoding/tweakkit/persist"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

type document struct {
	Overrides map[string]persist.Record `yaml:"overrides"`
}

// File is a YAML-backed tweak.Persister. It is safe for concurrent use.
type File struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

var _ tweak.Persister = (*File)(nil)

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger used to report records skipped on load.
func WithLogger(l *slog.Logger) Option {
	return func(f *File) { f.logger = l }
}

// New returns a persister for path. The file is not touched until the first
// call.
func New(path string, opts ...Option) *File {
	f := &File{path: filepath.Clean(path)}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// LoadOverrides reads all decodable records. Records that fail to decode are
// skipped and logged. A syntactically invalid file is an error.
func (f *File) LoadOverrides() (map[string]tweak.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]tweak.Value, len(doc.Overrides))
	for k, r := range doc.Overrides {
		v, err := persist.Decode(r)
		if err != nil {
			f.logger.Warn("yamlfile: skipping record", "path", f.path, "key", k, "error", err)
			continue
		}
		out[k] = v
	}
	return out, nil
}

// SaveOverride writes key's override and rewrites the file.
func (f *File) SaveOverride(key string, v tweak.Value) error {
	return f.update(func(doc *document) { doc.Overrides[key] = persist.Encode(v) })
}

// DeleteOverride removes key's override and rewrites the file.
func (f *File) DeleteOverride(key string) error {
	return f.update(func(doc *document) { delete(doc.Overrides, key) })
}

// SaveReset rewrites the file with no overrides.
func (f *File) SaveReset() error {
	return f.update(func(doc *document) { clear(doc.Overrides) })
}

func (f *File) update(fn func(*document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	fn(&doc)
	return f.write(doc)
}

func (f *File) read() (document, error) {
	doc := document{Overrides: make(map[string]persist.Record)}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("yamlfile: read %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("yamlfile: parse %s: %w", f.path, err)
	}
	if doc.Overrides == nil {
		doc.Overrides = make(map[string]persist.Record)
	}
	return doc, nil
}

func (f *File) write(doc document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yamlfile: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("yamlfile: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("yamlfile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("yamlfile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("yamlfile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("yamlfile: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("yamlfile: rename: %w", err)
	}
	return nil
}
