package predicate

import "github.com/arjunrai/tableidx/datatype"

// FieldRef identifies the column a predicate atom references. Predicate
// AST construction and type parsing are out of scope for this subsystem;
// callers need only expose this much per atom.
type FieldRef struct {
	ColumnIndex int
	ColumnName  string
	DataType    datatype.DataType
}
