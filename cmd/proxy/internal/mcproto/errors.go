package mcproto

import (
	"errors"
	"fmt"
	"io"
)

// Decoding errors. Every one of them is scoped to a single connection.
var (
	ErrMalformedVarInt = errors.New("mcproto: varint is too long")
	ErrTruncatedInput  = errors.New("mcproto: truncated input")
	ErrMalformedLength = errors.New("mcproto: malformed length")
	ErrPacketTooLarge  = errors.New("mcproto: packet exceeds size limit")
	ErrLegacyTooLarge  = errors.New("mcproto: legacy payload exceeds size limit")
)

// truncated maps end-of-stream conditions to ErrTruncatedInput and wraps
// anything else (timeouts, resets) with the field being read.
func truncated(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", field, ErrTruncatedInput)
	}
	return fmt.Errorf("%s: %w", field, err)
}
