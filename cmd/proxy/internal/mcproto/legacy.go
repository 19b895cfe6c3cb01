package mcproto

import (
	"fmt"
	"io"
)

// DefaultMaxLegacyBytes caps how much a legacy ping may send before the
// connection is cut. A real 1.6 ping is under 512 bytes.
const DefaultMaxLegacyBytes = 4 * 1024

// LegacyPing is the drained payload of a legacy connection.
type LegacyPing struct {
	Payload []byte
}

// ReadLegacy drains r to end of stream, failing once more than maxBytes
// arrive.
func ReadLegacy(r io.Reader, maxBytes int64) (*LegacyPing, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLegacyBytes
	}
	buf, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("legacy payload: %w", err)
	}
	if int64(len(buf)) > maxBytes {
		return nil, fmt.Errorf("legacy payload over %d bytes: %w", maxBytes, ErrLegacyTooLarge)
	}
	return &LegacyPing{Payload: buf}, nil
}

// Markers returns the first two payload bytes and how many of them exist.
func (p *LegacyPing) Markers() (first, second byte, n int) {
	switch {
	case len(p.Payload) >= 2:
		return p.Payload[0], p.Payload[1], 2
	case len(p.Payload) == 1:
		return p.Payload[0], 0, 1
	default:
		return 0, 0, 0
	}
}
