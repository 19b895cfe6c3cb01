package mcproto

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestClassify(t *testing.T) {
	if got := Classify(0xFE); got != KindLegacy {
		t.Errorf("Classify(0xFE) = %v, want legacy", got)
	}
	for _, b := range []byte{0x00, 0x0F, 0x10, 0xFD, 0xFF} {
		if got := Classify(b); got != KindModern {
			t.Errorf("Classify(0x%02X) = %v, want modern", b, got)
		}
	}
}

func TestSniffDoesNotConsume(t *testing.T) {
	tests := []struct {
		in   []byte
		want Kind
	}{
		{[]byte{0xFE, 0x01, 0xFA}, KindLegacy},
		{[]byte{0xFE}, KindLegacy},
		{localhostHandshake, KindModern},
	}
	for _, tc := range tests {
		br := bufio.NewReader(bytes.NewReader(tc.in))
		kind, err := Sniff(br)
		if err != nil {
			t.Fatalf("Sniff: %v", err)
		}
		if kind != tc.want {
			t.Errorf("Sniff(% X) = %v, want %v", tc.in, kind, tc.want)
		}
		all, _ := io.ReadAll(br)
		if !bytes.Equal(all, tc.in) {
			t.Errorf("after Sniff read % X, want % X", all, tc.in)
		}
	}
}

func TestSniffEmpty(t *testing.T) {
	kind, err := Sniff(bufio.NewReader(bytes.NewReader(nil)))
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("err = %v, want ErrTruncatedInput", err)
	}
	if kind != KindUnclassified {
		t.Errorf("kind = %v, want unclassified", kind)
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{KindUnclassified: "unclassified", KindLegacy: "legacy", KindModern: "modern"} {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}
