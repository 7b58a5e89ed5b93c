// Package bitmap implements the per-column bitmap file index: a writer that
// accumulates row-ids keyed by value (and by null) and seals them into the
// bytes described in meta.go, and a reader that lazily materializes those
// bitmaps back from a sealed payload.
//
// The per-key row-id sets themselves are backed by
// github.com/RoaringBitmap/roaring/roaring64; the accumulate-then-seal
// writer lifecycle and the version-byte/length-prefixed framing follow
// this module's established on-disk codec shape.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
	"github.com/arjunrai/tableidx/orderedmap"
)

// Writer accumulates row-ids for one column, keyed by canonical value bytes
// (or the null key), and seals them once into that byte layout.
//
// Not safe for concurrent use. Write calls must come from a single
// goroutine in row order.
type Writer struct {
	dataType datatype.DataType

	nextRowID uint64
	rowCount  uint64

	keys       *orderedmap.Map[*roaring64.Bitmap]
	nullBitmap *roaring64.Bitmap
	hasNull    bool

	sealed bool
}

// NewWriter creates an empty writer for a column of the given data type.
func NewWriter(dataType datatype.DataType) *Writer {
	return &Writer{
		dataType:   dataType,
		keys:       orderedmap.New[*roaring64.Bitmap](),
		nullBitmap: roaring64.New(),
	}
}

// Write assigns the current row-id to key (or to the null bucket when key
// is nil) and advances the row counter. Calling Write after SerializedBytes
// is an internal API misuse and panics, mirroring "sealing an already
// sealed writer".
func (w *Writer) Write(key any) error {
	if w.sealed {
		panic("bitmap: write called on a sealed writer")
	}

	rowID := w.nextRowID
	w.nextRowID++
	w.rowCount++

	if key == nil {
		w.hasNull = true
		w.nullBitmap.Add(rowID)
		return nil
	}

	encoded, err := datatype.EncodeKey(w.dataType, key)
	if err != nil {
		return fmt.Errorf("bitmap: %w", err)
	}

	bm := w.keys.GetOrInsert(string(encoded), roaring64.New)
	bm.Add(rowID)
	return nil
}

// SerializedBytes seals the writer and produces the on-disk byte layout.
// It may be called exactly once; a second call panics.
func (w *Writer) SerializedBytes() ([]byte, error) {
	if w.sealed {
		panic("bitmap: serialized_bytes called twice on the same writer")
	}
	w.sealed = true

	type sealedEntry struct {
		keyBytes []byte // nil for the null entry
		bitmap   *roaring64.Bitmap
	}

	var ordered []sealedEntry
	if w.hasNull {
		ordered = append(ordered, sealedEntry{bitmap: w.nullBitmap})
	}
	for k, bm := range w.keys.Iterator() {
		ordered = append(ordered, sealedEntry{keyBytes: []byte(k), bitmap: bm})
	}

	m := meta{
		RowCount:            w.rowCount,
		NonNullBitmapNumber: uint64(w.keys.Len()),
		HasNullValue:        w.hasNull,
	}

	var body bytes.Buffer
	var nullOffset *int64

	for _, e := range ordered {
		var offset int64
		if e.bitmap.GetCardinality() == 1 {
			offset = singletonOffset(e.bitmap.Minimum())
		} else {
			offset = int64(body.Len())
			if _, err := e.bitmap.WriteTo(&body); err != nil {
				return nil, errs.BitmapSerialization(err)
			}
		}

		if e.keyBytes == nil {
			o := offset
			nullOffset = &o
		} else {
			m.BitmapOffsets = append(m.BitmapOffsets, offsetEntry{Key: e.keyBytes, Offset: offset})
		}
	}
	m.NullValueOffset = nullOffset

	metaJSON, err := json.Marshal(m)
	if err != nil {
		return nil, errs.Serialization(err)
	}

	var out bytes.Buffer
	out.WriteByte(version)
	if err := binary.Write(&out, binary.LittleEndian, uint64(len(metaJSON))); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	out.Write(metaJSON)
	out.Write(body.Bytes())

	return out.Bytes(), nil
}
