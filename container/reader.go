package container

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arjunrai/tableidx/errs"
	"github.com/arjunrai/tableidx/storage"
)

// FileIndex is a parsed container: the header is fully materialized in
// memory, and GetColumnIndex/GetIndex issue one range read per non-empty
// entry against the backing InputFile.
type FileIndex struct {
	in     storage.InputFile
	header Header
	logger zerolog.Logger

	byColumn map[string]int // column name -> index into header.Columns
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	initialReadBlock int64
}

// WithInitialReadBlock overrides the default 1 MiB speculative first read.
func WithInitialReadBlock(n int64) OpenOption {
	return func(c *openConfig) { c.initialReadBlock = n }
}

// Open parses the container header from in. Cancellation mid-flight
// discards any partial state: no *FileIndex is returned until the whole
// header has parsed successfully.
func Open(ctx context.Context, in storage.InputFile, opts ...OpenOption) (*FileIndex, error) {
	cfg := openConfig{initialReadBlock: DefaultInitialReadBlock}
	for _, opt := range opts {
		opt(&cfg)
	}

	size, err := in.Stat(ctx)
	if err != nil {
		return nil, errs.IoUnexpected(err)
	}

	firstLen := cfg.initialReadBlock
	if firstLen > size {
		firstLen = size
	}
	if firstLen < fixedPrefixLen {
		return nil, errs.FormatInvalidf("container: file too small (%d bytes)", size)
	}

	buf, err := in.ReadRange(ctx, storage.ByteRange{Start: 0, Length: firstLen})
	if err != nil {
		return nil, errs.IoUnexpected(err)
	}

	magic := binary.LittleEndian.Uint64(buf[0:8])
	if magic != Magic {
		return nil, errs.FormatInvalidf("container: bad magic %x", magic)
	}

	version := int32(binary.LittleEndian.Uint32(buf[8:12]))
	if version != FormatVersion {
		return nil, errs.FormatInvalidf("container: unsupported version %d", version)
	}

	headLength := int64(int32(binary.LittleEndian.Uint32(buf[12:16])))
	if headLength < fixedPrefixLen || headLength > size {
		return nil, errs.FormatInvalidf("container: implausible head_length %d", headLength)
	}

	logger := log.With().Str("component", "container").Logger()
	if headLength > int64(len(buf)) {
		rest, err := in.ReadRange(ctx, storage.ByteRange{Start: int64(len(buf)), Length: headLength - int64(len(buf))})
		if err != nil {
			return nil, errs.IoUnexpected(err)
		}
		logger.Debug().Int64("head_length", headLength).Int("initial_block", len(buf)).Msg("container header exceeded initial block, issuing follow-up read")
		buf = append(buf, rest...)
	}

	header, err := decodeHeader(buf[:headLength])
	if err != nil {
		return nil, err
	}

	byColumn := make(map[string]int, len(header.Columns))
	for i, c := range header.Columns {
		byColumn[c.Name] = i
	}

	return &FileIndex{
		in:       in,
		header:   header,
		byColumn: byColumn,
		logger:   logger,
	}, nil
}

func decodeHeader(buf []byte) (Header, error) {
	if int64(len(buf)) < fixedPrefixLen {
		return Header{}, errs.FormatInvalidf("container: header shorter than fixed prefix")
	}

	r := &byteReader{buf: buf}
	_ = r.u64() // magic already validated by caller
	version := r.i32()
	headLength := r.i32()
	colNum := r.i32()
	if r.err != nil {
		return Header{}, errs.FormatInvalidf("container: corrupt header prefix: %v", r.err)
	}
	if colNum < 0 {
		return Header{}, errs.FormatInvalidf("container: negative column_number %d", colNum)
	}

	columns := make([]ColumnEntry, 0, colNum)
	for i := int32(0); i < colNum; i++ {
		name := r.lenPrefixedString()
		indexNum := r.i32()
		if r.err != nil {
			return Header{}, errs.FormatInvalidf("container: corrupt column entry %d: %v", i, r.err)
		}
		if indexNum < 0 {
			return Header{}, errs.FormatInvalidf("container: negative index_number %d for column %q", indexNum, name)
		}

		indexes := make([]IndexEntry, 0, indexNum)
		for j := int32(0); j < indexNum; j++ {
			idxName := r.lenPrefixedString()
			startPos := r.i64()
			length := r.i64()
			if r.err != nil {
				return Header{}, errs.FormatInvalidf("container: corrupt index entry %d of column %q: %v", j, name, r.err)
			}
			indexes = append(indexes, IndexEntry{Name: idxName, StartPos: startPos, Length: length})
		}
		columns = append(columns, ColumnEntry{Name: name, Indexes: indexes})
	}

	_ = r.i32() // redundant_length; version 1 always writes 0 and no redundant bytes follow
	if r.err != nil {
		return Header{}, errs.FormatInvalidf("container: corrupt redundant_length: %v", r.err)
	}

	return Header{Version: version, HeadLength: headLength, Columns: columns}, nil
}

// GetColumnIndex returns every named index payload for column. An unknown
// column is a format error, not a silent empty result.
func (f *FileIndex) GetColumnIndex(ctx context.Context, column string) (map[string][]byte, error) {
	i, ok := f.byColumn[column]
	if !ok {
		return nil, errs.FormatInvalidf("container: unknown column %q", column)
	}

	out := make(map[string][]byte, len(f.header.Columns[i].Indexes))
	for _, idx := range f.header.Columns[i].Indexes {
		data, err := f.readEntry(ctx, idx)
		if err != nil {
			return nil, err
		}
		out[idx.Name] = data
	}
	return out, nil
}

// GetIndex returns every column's every named index payload.
func (f *FileIndex) GetIndex(ctx context.Context) (map[string]map[string][]byte, error) {
	out := make(map[string]map[string][]byte, len(f.header.Columns))
	for _, c := range f.header.Columns {
		cols, err := f.GetColumnIndex(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		out[c.Name] = cols
	}
	return out, nil
}

// Columns lists the column names present in the header, in header order.
func (f *FileIndex) Columns() []string {
	names := make([]string, len(f.header.Columns))
	for i, c := range f.header.Columns {
		names[i] = c.Name
	}
	return names
}

func (f *FileIndex) readEntry(ctx context.Context, idx IndexEntry) ([]byte, error) {
	if idx.StartPos == EmptyIndexFlag {
		return []byte{}, nil
	}
	return f.in.ReadRange(ctx, storage.ByteRange{Start: idx.StartPos, Length: idx.Length})
}

// byteReader is a tiny bounds-checked cursor over a big-endian-free,
// little-endian binary buffer; it sticks at the first error.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = bytes.ErrTooLarge
		return false
	}
	return true
}

func (r *byteReader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *byteReader) i32() int32 {
	if !r.need(4) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v
}

func (r *byteReader) i64() int64 {
	if !r.need(8) {
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v
}

func (r *byteReader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) lenPrefixedString() string {
	n := int(r.u16())
	if !r.need(n) {
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}
