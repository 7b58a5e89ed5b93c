// Package datatype fixes the on-disk key encoding used by every column
// index codec. The source implementation parameterizes its codecs over a
// generic hashable key; this package removes that language-generic baggage
// by encoding every supported column type to a canonical byte string up
// front, so bitmap and Bloom codecs only ever deal in []byte keys.
package datatype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType enumerates the column value types the codecs know how to encode
// canonically. It intentionally mirrors the small set of primitive types a
// predicate literal can carry.
type DataType uint8

const (
	Int32 DataType = iota
	Int64
	Float64
	Bool
	String
	Bytes
)

func (d DataType) String() string {
	switch d {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("datatype(%d)", uint8(d))
	}
}

// EncodeKey produces the canonical, stable byte encoding for v under dt.
// The encoding must be total (every valid Go value of the matching type
// encodes) and must be identical across process runs, since it doubles as
// the hash-equality key for bitmap/Bloom indexing.
func EncodeKey(dt DataType, v any) ([]byte, error) {
	switch dt {
	case Int32:
		x, ok := v.(int32)
		if !ok {
			return nil, fmt.Errorf("datatype: want int32, got %T", v)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(x)^0x80000000)
		return buf, nil
	case Int64:
		x, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("datatype: want int64, got %T", v)
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(x)^0x8000000000000000)
		return buf, nil
	case Float64:
		x, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("datatype: want float64, got %T", v)
		}
		bits := math.Float64bits(x)
		if x < 0 {
			bits = ^bits
		} else {
			bits |= 0x8000000000000000
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, bits)
		return buf, nil
	case Bool:
		x, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("datatype: want bool, got %T", v)
		}
		if x {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case String:
		x, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("datatype: want string, got %T", v)
		}
		return []byte(x), nil
	case Bytes:
		x, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("datatype: want []byte, got %T", v)
		}
		out := make([]byte, len(x))
		copy(out, x)
		return out, nil
	default:
		return nil, fmt.Errorf("datatype: unsupported data type %v", dt)
	}
}
