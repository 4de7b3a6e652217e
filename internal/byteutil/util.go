package byteutil

import (
	"encoding/binary"
)

func EncodeInt64ToBytes(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func DecodeBytesToInt64(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// JoinKey builds a composite bucket key from big endian encoded ids, so
// cursor order follows numeric order of every component.
func JoinKey(ids ...int64) []byte {
	b := make([]byte, 0, 8*len(ids))
	for _, id := range ids {
		b = append(b, EncodeInt64ToBytes(id)...)
	}
	return b
}
