package tableidx

import (
	"context"
	"testing"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/predicate"
	"github.com/arjunrai/tableidx/registry"
	"github.com/arjunrai/tableidx/storage"
)

type memInputFile struct{ data []byte }

func (m memInputFile) ReadRange(_ context.Context, r storage.ByteRange) ([]byte, error) {
	return m.data[r.Start : r.Start+r.Length], nil
}

func (m memInputFile) Stat(context.Context) (int64, error) {
	return int64(len(m.data)), nil
}

func TestWriterReaderRoundTripAcrossColumns(t *testing.T) {
	specs := []ColumnSpec{
		{Column: "name", Kind: Bitmap, DataType: datatype.String},
		{Column: "email", Kind: BloomFilter, DataType: datatype.String},
	}

	w, err := NewWriter(DefaultRegistry(), specs)
	if err != nil {
		t.Fatal(err)
	}

	rows := []map[string]any{
		{"name": "alice", "email": "alice@example.com"},
		{"name": "bob", "email": "bob@example.com"},
		{"name": "alice", "email": "alice@example.com"},
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatal(err)
		}
	}

	built, err := w.Build()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	reader, err := OpenReader(ctx, DefaultRegistry(), memInputFile{data: built}, specs)
	if err != nil {
		t.Fatal(err)
	}

	eval, err := reader.Evaluator(ctx)
	if err != nil {
		t.Fatal(err)
	}

	res, err := eval.Evaluate(predicate.AtomNode{Atom: predicate.Atom{
		Kind:  predicate.Equal,
		Field: predicate.FieldRef{ColumnName: "name"},
		Value: "carol",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if res != predicate.Skip {
		t.Fatalf("Evaluate(name=carol) = %v, want Skip", res)
	}

	res, err = eval.Evaluate(predicate.AtomNode{Atom: predicate.Atom{
		Kind:  predicate.Equal,
		Field: predicate.FieldRef{ColumnName: "name"},
		Value: "alice",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if res != predicate.Remain {
		t.Fatalf("Evaluate(name=alice) = %v, want Remain", res)
	}

	res, err = eval.Evaluate(predicate.AtomNode{Atom: predicate.Atom{
		Kind:  predicate.Equal,
		Field: predicate.FieldRef{ColumnName: "email"},
		Value: "nobody@example.com",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if res != predicate.Skip {
		t.Fatalf("Evaluate(email=nobody@example.com) = %v, want Skip", res)
	}
}

func TestColumnIndexReaderUnknownColumnFails(t *testing.T) {
	specs := []ColumnSpec{{Column: "name", Kind: Bitmap, DataType: datatype.String}}
	w, err := NewWriter(DefaultRegistry(), specs)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRow(map[string]any{"name": "alice"}); err != nil {
		t.Fatal(err)
	}
	built, err := w.Build()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	reader, err := OpenReader(ctx, DefaultRegistry(), memInputFile{data: built}, specs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reader.ColumnIndexReader(ctx, "missing"); err == nil {
		t.Fatal("expected error for a column with no registered spec")
	}
}

func TestDefaultRegistryHasBothKinds(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Lookup(string(Bitmap)); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Lookup(string(BloomFilter)); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.New().Lookup(string(Bitmap)); err == nil {
		t.Fatal("expected a fresh registry to not know about bitmap")
	}
}
