// Package tableidx ties together the container format, the pluggable
// bitmap/Bloom index kinds and the predicate evaluator into the
// single-file on-disk index this module builds and reads: one sidecar
// file per data file, one or more named indexes per column.
package tableidx

import (
	"context"
	"sync"

	"github.com/arjunrai/tableidx/bitmap"
	"github.com/arjunrai/tableidx/bloom"
	"github.com/arjunrai/tableidx/container"
	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
	"github.com/arjunrai/tableidx/predicate"
	"github.com/arjunrai/tableidx/registry"
	"github.com/arjunrai/tableidx/storage"
)

// IndexKind identifies a pluggable index implementation by the same
// string used as its registry.Factory id.
type IndexKind string

const (
	Bitmap      IndexKind = IndexKind(bitmap.FactoryID)
	BloomFilter IndexKind = IndexKind(bloom.FactoryID)
)

var (
	defaultRegistry     *registry.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry with the bitmap and
// Bloom filter factories already registered. Additional index kinds can
// still be registered on it at any point before they are first looked up.
func DefaultRegistry() *registry.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = registry.New()
		_ = defaultRegistry.Register(bitmap.FactoryID, bitmap.Factory{})
		_ = defaultRegistry.Register(bloom.FactoryID, bloom.Factory{})
	})
	return defaultRegistry
}

// ColumnSpec describes one index to build for one column.
type ColumnSpec struct {
	Column   string
	Kind     IndexKind
	DataType datatype.DataType
	Options  registry.Options
}

// Writer accumulates row values for a set of (column, kind) indexes and
// produces one container file's bytes. Not safe for concurrent use.
type Writer struct {
	registry *registry.Registry
	writers  []namedWriter
	byColumn map[string][]int // column -> indices into writers, for Write's fan-out
}

type namedWriter struct {
	column string
	kind   IndexKind
	w      registry.Writer
}

// NewWriter builds indexes exactly as described by specs, resolving each
// kind against reg (use DefaultRegistry() unless a caller needs its own
// set of registered index kinds).
func NewWriter(reg *registry.Registry, specs []ColumnSpec) (*Writer, error) {
	w := &Writer{registry: reg, byColumn: make(map[string][]int)}
	for _, spec := range specs {
		factory, err := reg.Lookup(string(spec.Kind))
		if err != nil {
			return nil, err
		}
		iw, err := factory.NewWriter(spec.DataType, spec.Options)
		if err != nil {
			return nil, err
		}
		idx := len(w.writers)
		w.writers = append(w.writers, namedWriter{column: spec.Column, kind: spec.Kind, w: iw})
		w.byColumn[spec.Column] = append(w.byColumn[spec.Column], idx)
	}
	return w, nil
}

// WriteRow feeds values, keyed by column name, to every index registered
// for that column. Columns absent from values are treated as null for
// every index covering them.
func (w *Writer) WriteRow(values map[string]any) error {
	for column, indices := range w.byColumn {
		v := values[column]
		for _, i := range indices {
			if err := w.writers[i].w.Write(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build seals every writer and packs the results into one container
// file's bytes.
func (w *Writer) Build() ([]byte, error) {
	cw := container.NewWriter()
	for _, nw := range w.writers {
		data, err := nw.w.SerializedBytes()
		if err != nil {
			return nil, err
		}
		cw.AddIndex(nw.column, string(nw.kind), data)
	}
	return cw.Build()
}

// Reader opens a sealed container file and resolves its per-column
// indexes back into predicate.ColumnIndexReader on demand.
type Reader struct {
	registry *registry.Registry
	file     *container.FileIndex
	specs    map[string]ColumnSpec // column -> (kind, dataType) needed to decode its payload
}

// OpenReader parses the container header behind in. specs must describe
// the data type of every column the caller intends to evaluate
// predicates against; Kind is matched against the index name actually
// stored for that column.
func OpenReader(ctx context.Context, reg *registry.Registry, in storage.InputFile, specs []ColumnSpec) (*Reader, error) {
	file, err := container.Open(ctx, in)
	if err != nil {
		return nil, err
	}
	byColumn := make(map[string]ColumnSpec, len(specs))
	for _, s := range specs {
		byColumn[s.Column] = s
	}
	return &Reader{registry: reg, file: file, specs: byColumn}, nil
}

// ColumnIndexReader loads and decodes the named column's index, returning
// the predicate.ColumnIndexReader the evaluator dispatches atoms to.
func (r *Reader) ColumnIndexReader(ctx context.Context, column string) (predicate.ColumnIndexReader, error) {
	spec, ok := r.specs[column]
	if !ok {
		return nil, errs.FormatInvalidf("tableidx: no column spec registered for %q", column)
	}

	indexes, err := r.file.GetColumnIndex(ctx, column)
	if err != nil {
		return nil, err
	}
	payload, ok := indexes[string(spec.Kind)]
	if !ok {
		return nil, errs.FormatInvalidf("tableidx: column %q has no %q index", column, spec.Kind)
	}

	factory, err := r.registry.Lookup(string(spec.Kind))
	if err != nil {
		return nil, err
	}
	reader, err := factory.NewReader(spec.DataType, payload)
	if err != nil {
		return nil, err
	}
	return reader.ColumnIndexReader(), nil
}

// Evaluator builds a predicate.Evaluator covering every column spec this
// Reader knows about, loading each column's index payload eagerly.
func (r *Reader) Evaluator(ctx context.Context) (*predicate.Evaluator, error) {
	columns := make(map[string]predicate.ColumnIndexReader, len(r.specs))
	for name := range r.specs {
		cir, err := r.ColumnIndexReader(ctx, name)
		if err != nil {
			return nil, err
		}
		columns[name] = cir
	}
	return &predicate.Evaluator{Columns: columns}, nil
}
