package bitmap

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
)

// Reader lazily materializes per-key bitmaps from a sealed payload and
// caches them for its lifetime. Single-owner: sharing a Reader across
// concurrent goroutines requires external synchronization, since
// GetBitmap mutates the cache.
type Reader struct {
	dataType datatype.DataType
	meta     meta
	offsets  map[string]int64
	body     []byte // everything after meta_json, i.e. offsets are relative to body[0]

	cache      map[string]*roaring64.Bitmap
	nullBitmap *roaring64.Bitmap
	nullLoaded bool
}

// NewReader parses payload (the full bytes returned for one (column,index)
// container entry) and returns a Reader bound to it.
func NewReader(dataType datatype.DataType, payload []byte) (*Reader, error) {
	if len(payload) < 1+8 {
		return nil, errs.FormatInvalidf("bitmap payload truncated: %d bytes", len(payload))
	}
	if payload[0] != version {
		return nil, errs.FormatInvalidf("bitmap payload: unsupported version %d", payload[0])
	}

	metaLen := binary.LittleEndian.Uint64(payload[1:9])
	headerLen := uint64(9)
	if headerLen+metaLen > uint64(len(payload)) {
		return nil, errs.FormatInvalidf("bitmap payload: meta length %d exceeds payload", metaLen)
	}

	var m meta
	if err := json.Unmarshal(payload[headerLen:headerLen+metaLen], &m); err != nil {
		return nil, errs.Deserialization(err)
	}

	offsets := make(map[string]int64, len(m.BitmapOffsets))
	for _, e := range m.BitmapOffsets {
		offsets[string(e.Key)] = e.Offset
	}

	return &Reader{
		dataType: dataType,
		meta:     m,
		offsets:  offsets,
		body:     payload[headerLen+metaLen:],
		cache:    make(map[string]*roaring64.Bitmap, len(offsets)),
	}, nil
}

// RowCount returns the meta's row_count.
func (r *Reader) RowCount() uint64 { return r.meta.RowCount }

// GetBitmap returns the set of row-ids written for key. A key that was
// never written returns an empty, non-nil bitmap with no error.
func (r *Reader) GetBitmap(key any) (*roaring64.Bitmap, error) {
	encoded, err := datatype.EncodeKey(r.dataType, key)
	if err != nil {
		return nil, err
	}
	k := string(encoded)

	if bm, ok := r.cache[k]; ok {
		return bm, nil
	}

	offset, ok := r.offsets[k]
	if !ok {
		return roaring64.New(), nil
	}

	bm, err := r.loadAt(offset)
	if err != nil {
		return nil, err
	}
	r.cache[k] = bm
	return bm, nil
}

// GetNullBitmap returns the set of row-ids for which Write(nil) was called.
func (r *Reader) GetNullBitmap() (*roaring64.Bitmap, error) {
	if r.nullLoaded {
		return r.nullBitmap, nil
	}
	r.nullLoaded = true

	if !r.meta.HasNullValue || r.meta.NullValueOffset == nil {
		r.nullBitmap = roaring64.New()
		return r.nullBitmap, nil
	}

	bm, err := r.loadAt(*r.meta.NullValueOffset)
	if err != nil {
		r.nullLoaded = false
		return nil, err
	}
	r.nullBitmap = bm
	return bm, nil
}

func (r *Reader) loadAt(offset int64) (*roaring64.Bitmap, error) {
	if isSingleton(offset) {
		bm := roaring64.New()
		bm.Add(rowIDFromSingletonOffset(offset))
		return bm, nil
	}
	if offset < 0 || offset > int64(len(r.body)) {
		return nil, errs.FormatInvalidf("bitmap: offset %d outside body of length %d", offset, len(r.body))
	}

	bm := roaring64.New()
	if _, err := bm.ReadFrom(bytes.NewReader(r.body[offset:])); err != nil {
		return nil, errs.BitmapDeserialization(err)
	}
	return bm, nil
}
