package bitmap

import "github.com/arjunrai/tableidx/predicate"

// ColumnIndexReader adapts a Reader to predicate.ColumnIndexReader. A
// bitmap index can answer equality, membership and null-checks
// precisely; every other atom falls back to predicate.Default's Remain.
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
	bm, err := c.reader.GetBitmap(v)
	if err != nil {
		return predicate.Remain, err
	}
	if bm.IsEmpty() {
		return predicate.Skip, nil
	}
	return predicate.Remain, nil
}

func (c ColumnIndexReader) VisitNotEqual(f predicate.FieldRef, v any) (predicate.Result, error) {
	bm, err := c.reader.GetBitmap(v)
	if err != nil {
		return predicate.Remain, err
	}
	// Every row is NotEqual unless the bitmap's single key accounts for
	// the entire row count and no other key is present.
	if bm.GetCardinality() == c.reader.RowCount() {
		return predicate.Skip, nil
	}
	return predicate.Remain, nil
}

func (c ColumnIndexReader) VisitIn(f predicate.FieldRef, vs []any) (predicate.Result, error) {
	return predicate.FoldOrEqual(c, f, vs)
}

func (c ColumnIndexReader) VisitIsNull(_ predicate.FieldRef) (predicate.Result, error) {
	bm, err := c.reader.GetNullBitmap()
	if err != nil {
		return predicate.Remain, err
	}
	if bm.IsEmpty() {
		return predicate.Skip, nil
	}
	return predicate.Remain, nil
}

func (c ColumnIndexReader) VisitIsNotNull(_ predicate.FieldRef) (predicate.Result, error) {
	bm, err := c.reader.GetNullBitmap()
	if err != nil {
		return predicate.Remain, err
	}
	if bm.GetCardinality() == c.reader.RowCount() && c.reader.RowCount() > 0 {
		return predicate.Skip, nil
	}
	return predicate.Remain, nil
}
