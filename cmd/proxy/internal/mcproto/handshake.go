package mcproto

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxPacket bounds the outer handshake length. Real handshakes stay
// well under 300 bytes; modded clients append a few kilobytes at most.
const DefaultMaxPacket = 64 * 1024

// Handshake is the first packet of a modern connection.
type Handshake struct {
	PacketID        int32
	ProtocolVersion int32
	ServerAddress   []byte
	ServerPort      uint16

	// Raw holds every byte consumed from the connection, length prefix
	// included, so it can be replayed to the backend verbatim.
	Raw []byte

	residual int
}

// Residual is the number of trailing bytes inside the packet that followed
// the port field and were skipped.
func (h *Handshake) Residual() int {
	return h.residual
}

// recorder keeps a copy of every byte pulled through it.
type recorder struct {
	r   io.ByteReader
	buf []byte
}

func (rc *recorder) ReadByte() (byte, error) {
	b, err := rc.r.ReadByte()
	if err == nil {
		rc.buf = append(rc.buf, b)
	}
	return b, err
}

// ReadHandshake reads the outer length, buffers exactly that many bytes and
// decodes the fields from the buffer. Field decoding never touches r, so it
// cannot block mid-packet or read past the packet boundary.
func ReadHandshake(r io.Reader, maxPacket int) (*Handshake, error) {
	if maxPacket <= 0 {
		maxPacket = DefaultMaxPacket
	}

	rec := &recorder{r: NewDecoder(r), buf: make([]byte, 0, MaxVarIntLen)}
	length, _, err := ReadVarInt(rec)
	if err != nil {
		return nil, fmt.Errorf("packet length: %w", err)
	}
	if length < 0 {
		return nil, fmt.Errorf("packet length %d: %w", length, ErrMalformedLength)
	}
	if int(length) > maxPacket {
		return nil, fmt.Errorf("packet length %d > %d: %w", length, maxPacket, ErrPacketTooLarge)
	}

	raw := make([]byte, len(rec.buf)+int(length))
	copy(raw, rec.buf)
	body := raw[len(rec.buf):]
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, truncated("packet body", err)
	}

	h, err := ParseHandshake(body)
	if err != nil {
		return nil, err
	}
	h.Raw = raw
	return h, nil
}

// ParseHandshake decodes the handshake fields from an already framed body
// (everything after the outer length).
func ParseHandshake(body []byte) (*Handshake, error) {
	d := NewDecoder(bytes.NewReader(body))
	d.SetMaxString(max(len(body), DefaultMaxString))

	var (
		h   Handshake
		err error
	)
	if h.PacketID, err = d.ReadVarInt(); err != nil {
		return nil, fmt.Errorf("packet id: %w", err)
	}
	if h.ProtocolVersion, err = d.ReadVarInt(); err != nil {
		return nil, fmt.Errorf("protocol version: %w", err)
	}
	if h.ServerAddress, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("server address: %w", err)
	}
	if h.ServerPort, err = d.ReadUint16(); err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	h.residual = len(body) - d.Consumed()
	return &h, nil
}

// Marshal encodes the handshake with its outer length prefix. Raw is
// ignored.
func (h *Handshake) Marshal() []byte {
	body := AppendVarInt(nil, h.PacketID)
	body = AppendVarInt(body, h.ProtocolVersion)
	body = AppendVarInt(body, int32(len(h.ServerAddress)))
	body = append(body, h.ServerAddress...)
	body = append(body, byte(h.ServerPort>>8), byte(h.ServerPort))

	out := AppendVarInt(make([]byte, 0, MaxVarIntLen+len(body)), int32(len(body)))
	return append(out, body...)
}

// VirtualHosts is the server address split on null bytes.
type VirtualHosts struct {
	Primary string
	Addons  []string
}

// Hosts splits ServerAddress into the primary hostname and any addon
// segments (Forge markers, proxy forwarding data). Invalid UTF-8 is
// replaced, never rejected.
func (h *Handshake) Hosts() VirtualHosts {
	return SplitHosts(h.ServerAddress)
}

// SplitHosts splits a raw server address on 0x00. A single trailing null
// terminates the last segment rather than starting an empty one.
func SplitHosts(addr []byte) VirtualHosts {
	parts := bytes.Split(addr, []byte{0})
	if len(parts) > 1 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}

	vh := VirtualHosts{Primary: lossy(parts[0])}
	for _, p := range parts[1:] {
		vh.Addons = append(vh.Addons, lossy(p))
	}
	return vh
}

func lossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
