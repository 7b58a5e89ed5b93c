package container

import (
	"bytes"
	"encoding/binary"

	"github.com/arjunrai/tableidx/errs"
	"github.com/arjunrai/tableidx/orderedmap"
)

// Writer accumulates (column, index-name) -> bytes entries and packs them
// into one container file on Build. Column and index order follow
// insertion order, matching the writer-side determinism the rest of this
// package relies on for tests and tooling, though the format itself does
// not require it on read.
type Writer struct {
	columns *orderedmap.Map[*orderedmap.Map[[]byte]]
}

// NewWriter creates an empty container writer.
func NewWriter() *Writer {
	return &Writer{columns: orderedmap.New[*orderedmap.Map[[]byte]]()}
}

// AddIndex registers data under (column, indexName). data may be empty
// (including nil), which the container preserves as a zero-length payload
// occupying no body space.
func (w *Writer) AddIndex(column, indexName string, data []byte) {
	idxMap := w.columns.GetOrInsert(column, func() *orderedmap.Map[[]byte] {
		return orderedmap.New[[]byte]()
	})
	idxMap.Put(indexName, data)
}

// Build packs every accumulated entry into the on-disk byte layout.
func (w *Writer) Build() ([]byte, error) {
	var columns []ColumnEntry
	var allData [][]byte // payload per (column,index) in header order, nil for empty

	for colName, idxMap := range w.columns.Iterator() {
		var entries []IndexEntry
		for idxName, data := range idxMap.Iterator() {
			var entry IndexEntry
			entry.Name = idxName
			if len(data) == 0 {
				entry.StartPos = EmptyIndexFlag
				entry.Length = 0
			} else {
				// StartPos stays zero here; the pass below sets it to the
				// absolute offset once the header length is known.
				entry.Length = int64(len(data))
				allData = append(allData, data)
			}
			entries = append(entries, entry)
		}
		columns = append(columns, ColumnEntry{Name: colName, Indexes: entries})
	}

	headLen := headerLength(columns)
	if !fitsInt32(headLen) {
		return nil, errs.FormatInvalidf("container: header length %d overflows int32", headLen)
	}

	var body bytes.Buffer
	dataIdx := 0
	for ci := range columns {
		for ii := range columns[ci].Indexes {
			e := &columns[ci].Indexes[ii]
			if e.StartPos == EmptyIndexFlag {
				continue
			}
			e.StartPos = headLen + int64(body.Len())
			body.Write(allData[dataIdx])
			dataIdx++
		}
	}

	headerBytes, err := encodeHeader(Header{
		Version:    FormatVersion,
		HeadLength: int32(headLen),
		Columns:    columns,
	})
	if err != nil {
		return nil, err
	}
	if int64(len(headerBytes)) != headLen {
		return nil, errs.FormatInvalidf("container: computed header length %d, encoded %d", headLen, len(headerBytes))
	}

	out := make([]byte, 0, len(headerBytes)+body.Len())
	out = append(out, headerBytes...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func encodeHeader(h Header) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, Magic); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, h.Version); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, h.HeadLength); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, int32(len(h.Columns))); err != nil {
		return nil, errs.IoUnexpected(err)
	}

	for _, c := range h.Columns {
		if err := writeLenPrefixedName(&buf, c.Name); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, int32(len(c.Indexes))); err != nil {
			return nil, errs.IoUnexpected(err)
		}
		for _, idx := range c.Indexes {
			if err := writeLenPrefixedName(&buf, idx.Name); err != nil {
				return nil, err
			}
			if err := binary.Write(&buf, binary.LittleEndian, idx.StartPos); err != nil {
				return nil, errs.IoUnexpected(err)
			}
			if err := binary.Write(&buf, binary.LittleEndian, idx.Length); err != nil {
				return nil, errs.IoUnexpected(err)
			}
		}
	}

	// redundant_length = 0 in version 1; no redundant bytes follow.
	if err := binary.Write(&buf, binary.LittleEndian, int32(0)); err != nil {
		return nil, errs.IoUnexpected(err)
	}

	return buf.Bytes(), nil
}

func writeLenPrefixedName(buf *bytes.Buffer, name string) error {
	if len(name) > math_MaxUint16 {
		return errs.FormatInvalidf("container: name %q exceeds uint16 length limit", name)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(name))); err != nil {
		return errs.IoUnexpected(err)
	}
	buf.WriteString(name)
	return nil
}

const math_MaxUint16 = 1<<16 - 1
