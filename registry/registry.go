// Package registry maps the string identifiers that appear inside
// manifest metadata (e.g. "bitmap", "bloom-filter") to the Factory that
// knows how to build a writer or reader for that index kind. It is the
// single point of pluggability: a new index implementation registers
// itself once at process startup and every caller after that looks it up
// by name instead of switching on a hardcoded type.
package registry

import (
	"sync"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
	"github.com/arjunrai/tableidx/predicate"
)

// Writer is the minimal capability every index writer exposes,
// independent of which concrete index kind produced it.
type Writer interface {
	Write(key any) error
	SerializedBytes() ([]byte, error)
}

// Reader is the minimal capability every index reader exposes: enough to
// hand the predicate evaluator a column-specific visitor without the
// evaluator knowing which concrete index kind backs it.
type Reader interface {
	ColumnIndexReader() predicate.ColumnIndexReader
}

// Options carries the per-index-kind construction parameters a Factory
// needs. Fields a given factory ignores are simply left at their zero
// value by the caller.
type Options struct {
	ExpectedItems     uint
	FalsePositiveRate float64
}

// Factory builds writers and readers for one index kind over one column
// data type.
type Factory interface {
	NewWriter(dataType datatype.DataType, opts Options) (Writer, error)
	NewReader(dataType datatype.DataType, payload []byte) (Reader, error)
}

// Registry is a process-wide, concurrency-safe map from index-kind
// identifier to the Factory that implements it. The zero value is not
// usable; construct one with New.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds id to factory. Registration is insert-once: a second
// call with the same id fails rather than silently replacing the first
// factory, so a misconfigured second registration cannot change behavior
// underneath callers that already resolved id.
func (r *Registry) Register(id string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return errs.FactoryAlreadyExists(id)
	}
	r.factories[id] = factory
	return nil
}

// Lookup resolves id to its Factory.
func (r *Registry) Lookup(id string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[id]
	if !ok {
		return nil, errs.FactoryNotFound(id)
	}
	return factory, nil
}

// IDs returns every currently registered identifier, in no particular
// order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}
