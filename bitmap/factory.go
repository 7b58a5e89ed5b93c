package bitmap

import (
	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/registry"
)

// FactoryID is the identifier bitmap indexes register themselves under.
const FactoryID = "bitmap"

// Factory builds bitmap Writer/Reader pairs. It implements
// registry.Factory.
type Factory struct{}

func (Factory) NewWriter(dataType datatype.DataType, _ registry.Options) (registry.Writer, error) {
	return NewWriter(dataType), nil
}

func (Factory) NewReader(dataType datatype.DataType, payload []byte) (registry.Reader, error) {
	reader, err := NewReader(dataType, payload)
	if err != nil {
		return nil, err
	}
	return NewColumnIndexReader(reader), nil
}
