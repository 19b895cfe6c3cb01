package mcproto

import "bufio"

// LegacyPingMarker is the first byte of a pre-netty server list ping.
const LegacyPingMarker = 0xFE

// Kind is the one-shot classification of a connection.
type Kind byte

const (
	KindUnclassified Kind = iota
	KindLegacy
	KindModern
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindModern:
		return "modern"
	default:
		return "unclassified"
	}
}

// Classify decides the connection kind from its first byte.
func Classify(first byte) Kind {
	if first == LegacyPingMarker {
		return KindLegacy
	}
	return KindModern
}

// Sniff peeks the first byte of br and classifies it. The byte stays
// buffered, so the next read still returns it.
func Sniff(br *bufio.Reader) (Kind, error) {
	b, err := br.Peek(1)
	if err != nil {
		return KindUnclassified, truncated("first byte", err)
	}
	return Classify(b[0]), nil
}
