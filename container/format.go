// Package container implements the outer file-index container format
// a self-describing header listing, per column, the
// named indexes it carries and their absolute byte ranges in the file,
// followed by a body that concatenates every non-empty index payload.
//
// The header plays the same role a fixed footer of offset+size pairs
// would in a simpler single-section file, generalized into an arbitrary
// (column, index) table instead of one fixed set of sections.
package container

import "math"

// Magic is the fixed 8-byte value every container file begins with.
const Magic uint64 = 1_493_475_289_347_502

// FormatVersion is the only container version this package writes or
// reads.
const FormatVersion int32 = 1

// EmptyIndexFlag marks an index entry with zero payload bytes. Its
// start_pos is left at this sentinel rather than shifted by the header
// length.
const EmptyIndexFlag int64 = -1

// DefaultInitialReadBlock is how many bytes Open reads from offset 0
// before deciding whether a follow-up range read is needed for the rest
// of the header.
const DefaultInitialReadBlock int64 = 1 << 20

// fixedPrefixLen is magic(8) + version(4) + head_length(4) + column_number(4).
const fixedPrefixLen = 8 + 4 + 4 + 4

// IndexEntry is one named index payload within a column.
type IndexEntry struct {
	Name     string
	StartPos int64 // absolute file offset, or EmptyIndexFlag
	Length   int64
}

// ColumnEntry is one column's set of named indexes, in the order they were
// added to the Writer.
type ColumnEntry struct {
	Name    string
	Indexes []IndexEntry
}

// Header is the fully parsed container header.
type Header struct {
	Version    int32
	HeadLength int32
	Columns    []ColumnEntry
}

func columnEntryLen(c ColumnEntry) int64 {
	n := int64(2 + len(c.Name) + 4) // name_len + name + index_number
	for _, idx := range c.Indexes {
		n += int64(2 + len(idx.Name) + 8 + 8) // name_len + name + start_pos + length
	}
	return n
}

// headerLength computes the exact on-disk header length for columns, per
// the closed form derived from per-entry UTF-8 lengths.
func headerLength(columns []ColumnEntry) int64 {
	n := int64(fixedPrefixLen)
	for _, c := range columns {
		n += columnEntryLen(c)
	}
	n += 4 // redundant_length (always 0 in version 1)
	return n
}

func fitsInt32(n int64) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}
