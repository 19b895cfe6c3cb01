package mcproto

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadLegacy(t *testing.T) {
	in := []byte{0xFE, 0x01, 0xFA, 0x00, 0x0B}
	p, err := ReadLegacy(bytes.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadLegacy: %v", err)
	}
	if !bytes.Equal(p.Payload, in) {
		t.Errorf("Payload = % X, want % X", p.Payload, in)
	}
	first, second, n := p.Markers()
	if first != 0xFE || second != 0x01 || n != 2 {
		t.Errorf("Markers = %02X %02X (%d), want FE 01 (2)", first, second, n)
	}
}

func TestReadLegacyExactlyAtLimit(t *testing.T) {
	in := bytes.Repeat([]byte{0xFE}, 16)
	if _, err := ReadLegacy(bytes.NewReader(in), 16); err != nil {
		t.Fatalf("ReadLegacy at limit: %v", err)
	}
}

func TestReadLegacyTooLarge(t *testing.T) {
	in := bytes.Repeat([]byte{0xFE}, 17)
	p, err := ReadLegacy(bytes.NewReader(in), 16)
	if !errors.Is(err, ErrLegacyTooLarge) {
		t.Fatalf("err = %v, want ErrLegacyTooLarge", err)
	}
	if p != nil {
		t.Errorf("payload returned on overflow")
	}
}

func TestLegacyMarkersShort(t *testing.T) {
	first, _, n := (&LegacyPing{Payload: []byte{0xFE}}).Markers()
	if first != 0xFE || n != 1 {
		t.Errorf("Markers = %02X (%d), want FE (1)", first, n)
	}
	if _, _, n := (&LegacyPing{}).Markers(); n != 0 {
		t.Errorf("empty Markers n = %d, want 0", n)
	}
}
