package mcproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultMaxString caps a single length-prefixed string. Handshake addresses
// are far shorter; the cap only guards allocations driven by a peer.
const DefaultMaxString = 32 * 1024

// Decoder reads protocol fields from a byte source. It counts every byte it
// consumes so callers can tell where a field ended.
type Decoder struct {
	r         io.Reader
	br        io.ByteReader
	n         int
	maxString int
	one       [1]byte
}

// NewDecoder wraps r. If r is already an io.ByteReader (bytes.Reader,
// bufio.Reader) single-byte reads go straight to it.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: r, maxString: DefaultMaxString}
	if br, ok := r.(io.ByteReader); ok {
		d.br = br
	}
	return d
}

// SetMaxString changes the length cap applied by ReadString.
func (d *Decoder) SetMaxString(n int) {
	d.maxString = n
}

// Consumed returns the number of bytes read so far.
func (d *Decoder) Consumed() int {
	return d.n
}

// ReadByte implements io.ByteReader.
func (d *Decoder) ReadByte() (byte, error) {
	if d.br != nil {
		b, err := d.br.ReadByte()
		if err != nil {
			return 0, err
		}
		d.n++
		return b, nil
	}
	if _, err := io.ReadFull(d.r, d.one[:]); err != nil {
		return 0, err
	}
	d.n++
	return d.one[0], nil
}

// ReadVarInt decodes a VarInt from the source.
func (d *Decoder) ReadVarInt() (int32, error) {
	v, _, err := ReadVarInt(d)
	return v, err
}

// ReadBytes reads exactly n bytes into a new slice.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(d.r, buf)
	d.n += read
	if err != nil {
		return nil, truncated("bytes", err)
	}
	return buf, nil
}

// ReadString decodes a VarInt byte length followed by that many raw bytes.
func (d *Decoder) ReadString() ([]byte, error) {
	length, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || int(length) > d.maxString {
		return nil, fmt.Errorf("string length %d: %w", length, ErrMalformedLength)
	}
	return d.ReadBytes(int(length))
}

// ReadUint16 reads a big-endian unsigned short.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}
