package predicate

import "fmt"

// ColumnIndexReader is implemented by each pluggable indexer's read-side
// adapter (bitmap.ColumnIndexReader, bloom.ColumnIndexReader, ...). Every
// method's safe default is Remain; a
// concrete adapter overrides only the atoms its index can answer
// precisely.
type ColumnIndexReader interface {
	VisitEqual(f FieldRef, v any) (Result, error)
	VisitNotEqual(f FieldRef, v any) (Result, error)
	VisitIn(f FieldRef, vs []any) (Result, error)
	VisitNotIn(f FieldRef, vs []any) (Result, error)
	VisitLessThan(f FieldRef, v any) (Result, error)
	VisitGreaterThan(f FieldRef, v any) (Result, error)
	VisitLessOrEqual(f FieldRef, v any) (Result, error)
	VisitGreaterOrEqual(f FieldRef, v any) (Result, error)
	VisitStartsWith(f FieldRef, prefix string) (Result, error)
	VisitEndsWith(f FieldRef, suffix string) (Result, error)
	VisitIsNull(f FieldRef) (Result, error)
	VisitIsNotNull(f FieldRef) (Result, error)
}

// FoldOrEqual implements "visit_in defaults to fold OR of visit_equal,
// short-circuited" against whichever reader owns the
// VisitEqual method, so every indexer's VisitIn can be a one-line
// delegation instead of reimplementing the fold.
func FoldOrEqual(r ColumnIndexReader, f FieldRef, values []any) (Result, error) {
	acc := Skip
	for _, v := range values {
		res, err := r.VisitEqual(f, v)
		if err != nil {
			return Remain, err
		}
		acc = acc.Or(res)
		if acc == Remain {
			break
		}
	}
	return acc, nil
}

// FoldAndNotEqual is the NotIn analogue of FoldOrEqual, for indexers that
// choose to answer NotIn precisely via NotEqual.
func FoldAndNotEqual(r ColumnIndexReader, f FieldRef, values []any) (Result, error) {
	acc := Remain
	for _, v := range values {
		res, err := r.VisitNotEqual(f, v)
		if err != nil {
			return Remain, err
		}
		acc = acc.And(res)
		if acc == Skip {
			break
		}
	}
	return acc, nil
}

// Evaluator walks a Node tree, dispatching each atom to the
// ColumnIndexReader registered for its column and composing sub-results
// via the Result lattice. A column with no registered reader is
// conservative: it always contributes Remain.
type Evaluator struct {
	Columns map[string]ColumnIndexReader
}

// Evaluate returns the verdict for root.
func (e *Evaluator) Evaluate(root Node) (Result, error) {
	switch n := root.(type) {
	case AtomNode:
		return e.evaluateAtom(n.Atom)
	case AndNode:
		acc := Remain
		for _, child := range n.Children {
			res, err := e.Evaluate(child)
			if err != nil {
				return Remain, err
			}
			acc = acc.And(res)
			if acc == Skip {
				break
			}
		}
		return acc, nil
	case OrNode:
		acc := Skip
		for _, child := range n.Children {
			res, err := e.Evaluate(child)
			if err != nil {
				return Remain, err
			}
			acc = acc.Or(res)
			if acc == Remain {
				break
			}
		}
		return acc, nil
	default:
		return Remain, fmt.Errorf("predicate: unsupported node type %T", root)
	}
}

func (e *Evaluator) evaluateAtom(a Atom) (Result, error) {
	reader, ok := e.Columns[a.Field.ColumnName]
	if !ok {
		return Remain, nil
	}

	switch a.Kind {
	case Equal:
		return reader.VisitEqual(a.Field, a.Value)
	case NotEqual:
		return reader.VisitNotEqual(a.Field, a.Value)
	case In:
		return reader.VisitIn(a.Field, a.Values)
	case NotIn:
		return reader.VisitNotIn(a.Field, a.Values)
	case LessThan:
		return reader.VisitLessThan(a.Field, a.Value)
	case GreaterThan:
		return reader.VisitGreaterThan(a.Field, a.Value)
	case LessOrEqual:
		return reader.VisitLessOrEqual(a.Field, a.Value)
	case GreaterOrEqual:
		return reader.VisitGreaterOrEqual(a.Field, a.Value)
	case StartsWith:
		prefix, _ := a.Value.(string)
		return reader.VisitStartsWith(a.Field, prefix)
	case EndsWith:
		suffix, _ := a.Value.(string)
		return reader.VisitEndsWith(a.Field, suffix)
	case IsNull:
		return reader.VisitIsNull(a.Field)
	case IsNotNull:
		return reader.VisitIsNotNull(a.Field)
	default:
		return Remain, fmt.Errorf("predicate: unsupported atom kind %v", a.Kind)
	}
}

// Default implements ColumnIndexReader with every atom defaulting to
// Remain. Embed it in a concrete adapter and override only the atoms that
// adapter's index can answer precisely.
type Default struct{}

func (Default) VisitEqual(FieldRef, any) (Result, error)            { return Remain, nil }
func (Default) VisitNotEqual(FieldRef, any) (Result, error)         { return Remain, nil }
func (Default) VisitIn(FieldRef, []any) (Result, error)             { return Remain, nil }
func (Default) VisitNotIn(FieldRef, []any) (Result, error)          { return Remain, nil }
func (Default) VisitLessThan(FieldRef, any) (Result, error)         { return Remain, nil }
func (Default) VisitGreaterThan(FieldRef, any) (Result, error)      { return Remain, nil }
func (Default) VisitLessOrEqual(FieldRef, any) (Result, error)      { return Remain, nil }
func (Default) VisitGreaterOrEqual(FieldRef, any) (Result, error)   { return Remain, nil }
func (Default) VisitStartsWith(FieldRef, string) (Result, error)    { return Remain, nil }
func (Default) VisitEndsWith(FieldRef, string) (Result, error)      { return Remain, nil }
func (Default) VisitIsNull(FieldRef) (Result, error)                { return Remain, nil }
func (Default) VisitIsNotNull(FieldRef) (Result, error)             { return Remain, nil }
