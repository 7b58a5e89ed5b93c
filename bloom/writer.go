// Package bloom implements the per-column Bloom-filter file index: a
// writer parameterized by expected item count and target false-positive
// rate, and a reader whose Contains() is never false-negative.
//
// Same github.com/bits-and-blooms/bloom/v3 type and
// NewWithEstimates/K/Cap/WriteTo call shape as a per-file Bloom block,
// generalized into a sealed, independently-readable column payload.
package bloom

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/errs"
)

// Writer accumulates keys into a Bloom filter and seals them once into the
// byte layout described in meta.go.
type Writer struct {
	dataType datatype.DataType
	filter   *bloom.BloomFilter
	sealed   bool
}

// NewWriter creates a writer sized for expectedItems distinct keys at the
// given target false-positive rate, per the standard Bloom formula (the
// library computes bit-count and hash-function count internally).
func NewWriter(dataType datatype.DataType, expectedItems uint, falsePositiveRate float64) *Writer {
	return &Writer{
		dataType: dataType,
		filter:   bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

// Write inserts key. Write(nil) is a no-op: nulls are tested by the
// column-missing predicate path, not by the Bloom filter.
func (w *Writer) Write(key any) error {
	if w.sealed {
		panic("bloom: write called on a sealed writer")
	}
	if key == nil {
		return nil
	}

	encoded, err := datatype.EncodeKey(w.dataType, key)
	if err != nil {
		return err
	}
	w.filter.Add(encoded)
	return nil
}

// SerializedBytes seals the writer and produces the on-disk byte layout. It
// may be called exactly once; a second call panics.
func (w *Writer) SerializedBytes() ([]byte, error) {
	if w.sealed {
		panic("bloom: serialized_bytes called twice on the same writer")
	}
	w.sealed = true

	m := meta{
		BitmapBits: uint64(w.filter.Cap()),
		KNum:       uint32(w.filter.K()),
		SipKeys:    fixedSipKeys,
	}
	metaJSON, err := json.Marshal(m)
	if err != nil {
		return nil, errs.Serialization(err)
	}

	var bits bytes.Buffer
	if _, err := w.filter.WriteTo(&bits); err != nil {
		return nil, errs.IoUnexpected(err)
	}

	var out bytes.Buffer
	out.WriteByte(version)
	if err := binary.Write(&out, binary.LittleEndian, uint64(len(metaJSON))); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	out.Write(metaJSON)
	if err := binary.Write(&out, binary.LittleEndian, uint64(bits.Len())); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	out.Write(bits.Bytes())

	return out.Bytes(), nil
}
