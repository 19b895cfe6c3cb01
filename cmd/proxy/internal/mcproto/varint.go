// Package mcproto decodes the opening bytes of a Minecraft connection: the
// legacy ping marker and the modern framed handshake.
package mcproto

// MaxVarIntLen is the longest encoding of a 32-bit VarInt.
const MaxVarIntLen = 5

// ByteReader is the minimal source ReadVarInt needs.
type ByteReader interface {
	ReadByte() (byte, error)
}

// ReadVarInt decodes a VarInt one byte at a time and reports how many bytes
// it consumed. Groups are little-endian, 7 data bits each, high bit set
// while more bytes follow.
func ReadVarInt(r ByteReader) (int32, int, error) {
	var v uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, i, truncated("varint", err)
		}
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(v), i + 1, nil
		}
	}
	return 0, MaxVarIntLen, ErrMalformedVarInt
}

// AppendVarInt appends the encoding of v to dst. Negative values use their
// two's-complement form and always take five bytes.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// VarIntSize returns the encoded length of v.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}
