package session

import (
	"strings"
	"unicode/utf8"
)

// streamDecoder turns a byte stream into text, holding back a trailing
// partial UTF-8 sequence until the rest of it arrives.
type streamDecoder struct {
	pending []byte
}

// Decode returns the text that is complete after appending p
func (d *streamDecoder) Decode(p []byte) string {
	buf := append(d.pending, p...)

	cut := len(buf)
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if utf8.RuneStart(buf[i]) {
			if !utf8.FullRune(buf[i:]) {
				cut = i
			}
			break
		}
	}

	d.pending = append(d.pending[:0:0], buf[cut:]...)
	return strings.ToValidUTF8(string(buf[:cut]), string(utf8.RuneError))
}

// Flush returns whatever is still held back, with invalid bytes replaced
func (d *streamDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := strings.ToValidUTF8(string(d.pending), string(utf8.RuneError))
	d.pending = nil
	return s
}
