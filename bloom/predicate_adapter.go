package bloom

import "github.com/arjunrai/tableidx/predicate"

// ColumnIndexReader adapts a Reader to predicate.ColumnIndexReader. A
// Bloom filter never produces a false negative, so VisitEqual can Skip
// when Contains reports absence; it can never assert Skip for NotEqual
// or membership-complement atoms, so those fall back to Remain.
type ColumnIndexReader struct {
	predicate.Default
	reader *Reader
}

// NewColumnIndexReader wraps reader for predicate evaluation.
func NewColumnIndexReader(reader *Reader) ColumnIndexReader {
	return ColumnIndexReader{reader: reader}
}

// ColumnIndexReader satisfies registry.Reader.
func (c ColumnIndexReader) ColumnIndexReader() predicate.ColumnIndexReader { return c }

func (c ColumnIndexReader) VisitEqual(_ predicate.FieldRef, v any) (predicate.Result, error) {
	present, err := c.reader.Contains(v)
	if err != nil {
		return predicate.Remain, err
	}
	if !present {
		return predicate.Skip, nil
	}
	return predicate.Remain, nil
}

func (c ColumnIndexReader) VisitIn(f predicate.FieldRef, vs []any) (predicate.Result, error) {
	return predicate.FoldOrEqual(c, f, vs)
}
