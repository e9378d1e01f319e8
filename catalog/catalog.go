// Package catalog loads fractal descriptors from JSON, YAML or SQLite sources
// and normalizes them into an ordered, read-only collection.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog/sqlite"
)

//go:embed fractals.json
var defaultCatalog []byte

type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ErrDuplicateID is returned when two descriptors share an id.
var ErrDuplicateID = errors.New("duplicate descriptor id")

// document is the layout of catalog files: {"fractals": [...]}.
type document struct {
	Fractals []chaos.RawDescriptor `json:"fractals" yaml:"fractals"`
}

// FormatOf infers the source format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported catalog file %q", path)
	}
}

// Decode reads raw descriptors from a JSON or YAML document.
func Decode(r io.Reader, f Format) ([]chaos.RawDescriptor, error) {
	var doc document
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode catalog: unsupported format %q", f)
	}
	return doc.Fractals, nil
}

// ReadFile reads raw descriptors from a catalog file of any supported format.
func ReadFile(ctx context.Context, path string) ([]chaos.RawDescriptor, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f == FormatSQLite {
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.List(ctx)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()
	return Decode(file, f)
}

// DefaultRaw returns the descriptors of the embedded catalog.
func DefaultRaw() []chaos.RawDescriptor {
	raws, err := Decode(bytes.NewReader(defaultCatalog), FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return raws
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := New(DefaultRaw())
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads and normalizes the catalog at path; an empty path selects the
// embedded catalog. Invalid entries are left out and reported in the
// returned error next to a usable catalog.
func Load(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raws, err := ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	c, err := New(raws)
	chaos.Logger().Info("catalog loaded", "path", path, "fractals", c.Len())
	return c, err
}

// Catalog is an ordered collection of normalized descriptors.
type Catalog struct {
	items []chaos.Descriptor
	byID  map[string]int
}

// New normalizes raws. One bad descriptor never affects another: invalid and
// duplicate entries are skipped, and their errors joined into the returned
// error. The catalog is never nil.
func New(raws []chaos.RawDescriptor) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(raws))}
	var errs []error
	for i, raw := range raws {
		d, err := chaos.Normalize(raw)
		if err != nil {
			chaos.Logger().Warn("skipping descriptor", "index", i, "id", raw.ID, "err", err)
			errs = append(errs, fmt.Errorf("fractal %d: %w", i, err))
			continue
		}
		if _, ok := c.byID[d.ID]; ok {
			errs = append(errs, fmt.Errorf("fractal %d: %w: %q", i, ErrDuplicateID, d.ID))
			continue
		}
		c.byID[d.ID] = len(c.items)
		c.items = append(c.items, d)
	}
	return c, errors.Join(errs...)
}

func (c *Catalog) Len() int { return len(c.items) }

// All returns the descriptors in catalog order.
func (c *Catalog) All() []chaos.Descriptor {
	return append([]chaos.Descriptor(nil), c.items...)
}

func (c *Catalog) At(i int) chaos.Descriptor { return c.items[i] }

func (c *Catalog) Get(id string) (chaos.Descriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return chaos.Descriptor{}, false
	}
	return c.items[i], true
}

// Index returns the position of id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}
