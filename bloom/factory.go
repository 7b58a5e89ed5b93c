package bloom

import (
	"github.com/arjunrai/tableidx/datatype"
	"github.com/arjunrai/tableidx/registry"
)

// FactoryID is the identifier Bloom filter indexes register themselves
// under.
const FactoryID = "bloom-filter"

const (
	defaultExpectedItems     = 1 << 16
	defaultFalsePositiveRate = 0.01
)

// Factory builds Bloom filter Writer/Reader pairs. It implements
// registry.Factory.
type Factory struct{}

func (Factory) NewWriter(dataType datatype.DataType, opts registry.Options) (registry.Writer, error) {
	expected := opts.ExpectedItems
	if expected == 0 {
		expected = defaultExpectedItems
	}
	fpRate := opts.FalsePositiveRate
	if fpRate == 0 {
		fpRate = defaultFalsePositiveRate
	}
	return NewWriter(dataType, expected, fpRate), nil
}

func (Factory) NewReader(dataType datatype.DataType, payload []byte) (registry.Reader, error) {
	reader, err := NewReader(dataType, payload)
	if err != nil {
		return nil, err
	}
	return NewColumnIndexReader(reader), nil
}
