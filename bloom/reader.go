package bloom

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
)

// Reader answers membership queries against a sealed Bloom payload.
// Contains is never false-negative: a false result is authoritative
// "not present".
type Reader struct {
	dataType datatype.DataType
	meta     meta
	filter   *bloom.BloomFilter
}

// NewReader parses payload (the full bytes returned for one (column,index)
// container entry) and returns a Reader bound to it.
func NewReader(dataType datatype.DataType, payload []byte) (*Reader, error) {
	if len(payload) < 1+8 {
		return nil, errs.FormatInvalidf("bloom payload truncated: %d bytes", len(payload))
	}
	if payload[0] != version {
		return nil, errs.FormatInvalidf("bloom payload: unsupported version %d", payload[0])
	}

	metaLen := binary.LittleEndian.Uint64(payload[1:9])
	off := uint64(9)
	if off+metaLen > uint64(len(payload)) {
		return nil, errs.FormatInvalidf("bloom payload: meta length %d exceeds payload", metaLen)
	}

	var m meta
	if err := json.Unmarshal(payload[off:off+metaLen], &m); err != nil {
		return nil, errs.Deserialization(err)
	}
	off += metaLen

	if off+8 > uint64(len(payload)) {
		return nil, errs.FormatInvalidf("bloom payload: truncated before bits_len")
	}
	bitsLen := binary.LittleEndian.Uint64(payload[off : off+8])
	off += 8
	if off+bitsLen > uint64(len(payload)) {
		return nil, errs.FormatInvalidf("bloom payload: bits length %d exceeds payload", bitsLen)
	}

	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(bytes.NewReader(payload[off : off+bitsLen])); err != nil {
		return nil, errs.Deserialization(err)
	}

	return &Reader{dataType: dataType, meta: m, filter: filter}, nil
}

// Contains reports whether key may have been inserted. It never returns a
// false negative.
func (r *Reader) Contains(key any) (bool, error) {
	encoded, err := datatype.EncodeKey(r.dataType, key)
	if err != nil {
		return false, err
	}
	return r.filter.Test(encoded), nil
}

// BitmapBits returns the persisted bit-vector size.
func (r *Reader) BitmapBits() uint64 { return r.meta.BitmapBits }

// KNum returns the persisted hash-function count.
func (r *Reader) KNum() uint32 { return r.meta.KNum }
