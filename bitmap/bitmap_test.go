package bitmap

import (
	"testing"

	"github.com/arjunrai/tableidx/datatype"
)

func rowIDs(t *testing.T, r *Reader, key any) []uint64 {
	t.Helper()
	bm, err := r.GetBitmap(key)
	if err != nil {
		t.Fatalf("GetBitmap(%v): %v", key, err)
	}
	return bm.ToArray()
}

func assertRowIDs(t *testing.T, got []uint64, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestRoundTripS1 writes "key1", nil, "key2", "key1" and expects
// key1 -> {0,3}, key2 -> {2}, null -> {1}, row_count=4.
func TestRoundTripS1(t *testing.T) {
	w := NewWriter(datatype.String)
	for _, k := range []any{"key1", nil, "key2", "key1"} {
		if err := w.Write(k); err != nil {
			t.Fatalf("Write(%v): %v", k, err)
		}
	}

	payload, err := w.SerializedBytes()
	if err != nil {
		t.Fatalf("SerializedBytes: %v", err)
	}

	r, err := NewReader(datatype.String, payload)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if r.RowCount() != 4 {
		t.Fatalf("RowCount() = %d, want 4", r.RowCount())
	}

	assertRowIDs(t, rowIDs(t, r, "key1"), []uint64{0, 3})
	assertRowIDs(t, rowIDs(t, r, "key2"), []uint64{2})

	nullBM, err := r.GetNullBitmap()
	if err != nil {
		t.Fatalf("GetNullBitmap: %v", err)
	}
	assertRowIDs(t, nullBM.ToArray(), []uint64{1})
}

func TestMissingKeyReturnsEmptyNotError(t *testing.T) {
	w := NewWriter(datatype.String)
	_ = w.Write("key1")
	payload, err := w.SerializedBytes()
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(datatype.String, payload)
	if err != nil {
		t.Fatal(err)
	}

	bm, err := r.GetBitmap("absent")
	if err != nil {
		t.Fatalf("expected no error for absent key, got %v", err)
	}
	if bm.GetCardinality() != 0 {
		t.Fatalf("expected empty bitmap, got cardinality %d", bm.GetCardinality())
	}
}

func TestSingletonEncodingAvoidsBodyBytes(t *testing.T) {
	w := NewWriter(datatype.Int64)
	_ = w.Write(int64(42))

	payload, err := w.SerializedBytes()
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(datatype.Int64, payload)
	if err != nil {
		t.Fatal(err)
	}

	offset, ok := r.offsets[string(mustEncode(t, int64(42)))]
	if !ok {
		t.Fatal("expected key to be recorded")
	}
	if !isSingleton(offset) {
		t.Fatalf("expected singleton (negative) offset, got %d", offset)
	}
	if len(r.body) != 0 {
		t.Fatalf("expected zero body bytes for a single-row index, got %d", len(r.body))
	}

	bm, err := r.GetBitmap(int64(42))
	if err != nil {
		t.Fatal(err)
	}
	assertRowIDs(t, bm.ToArray(), []uint64{0})
}

func mustEncode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := datatype.EncodeKey(datatype.Int64, v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestWriteAfterSealPanics(t *testing.T) {
	w := NewWriter(datatype.String)
	_ = w.Write("a")
	if _, err := w.SerializedBytes(); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing to a sealed writer")
		}
	}()
	_ = w.Write("b")
}

func TestSerializedBytesTwicePanics(t *testing.T) {
	w := NewWriter(datatype.String)
	_ = w.Write("a")
	if _, err := w.SerializedBytes(); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second seal")
		}
	}()
	_, _ = w.SerializedBytes()
}

func TestLargeBitmapRoundTrip(t *testing.T) {
	w := NewWriter(datatype.Int32)
	const n = 5000
	for i := 0; i < n; i++ {
		key := int32(i % 7)
		if err := w.Write(key); err != nil {
			t.Fatal(err)
		}
	}

	payload, err := w.SerializedBytes()
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(datatype.Int32, payload)
	if err != nil {
		t.Fatal(err)
	}

	for key := int32(0); key < 7; key++ {
		bm, err := r.GetBitmap(key)
		if err != nil {
			t.Fatal(err)
		}
		want := 0
		for i := 0; i < n; i++ {
			if int32(i%7) == key {
				want++
			}
		}
		if int(bm.GetCardinality()) != want {
			t.Fatalf("key %d: got cardinality %d, want %d", key, bm.GetCardinality(), want)
		}
	}
}
