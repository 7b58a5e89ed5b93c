package bloom

// meta is the on-disk bloom filter metadata: the bit-vector size,
// hash-function count, and the two 128-bit hash seeds the reference format
// persists alongside the bits.
//
// github.com/bits-and-blooms/bloom/v3, the library this package wraps,
// owns its own fixed internal hash family and does not expose per-instance
// seeding, so SipKeys here is not fed into the hash: it is carried purely
// for container-format parity, and no reader in this module consults it.
// See DESIGN.md for the open-question resolution.
type meta struct {
	BitmapBits uint64    `json:"bitmap_bits"`
	KNum       uint32    `json:"k_num"`
	SipKeys    [2]uint64 `json:"sip_keys"`
}

var fixedSipKeys = [2]uint64{0x9ae16a3b2f90404f, 0xc949d7c7509e6557}

const version = byte(1)
