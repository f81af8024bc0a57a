// Package hl7 implements MLLP framing and HL7 v2.3.1/v2.4 message parsing
// for hematology analyzers, per spec.md §4.2.
package hl7

import "bytes"

// MLLP framing bytes, per spec.md §4.2 and the GLOSSARY.
const (
	VT = 0x0B
	FS = 0x1C
	CR = 0x0D
)

// Wrap prepends VT and appends FS CR to text, producing a complete MLLP
// frame ready to write to the socket.
func Wrap(text []byte) []byte {
	out := make([]byte, 0, len(text)+3)
	out = append(out, VT)
	out = append(out, text...)
	out = append(out, FS, CR)
	return out
}

// Extract scans buf for the first VT, then for the next FS CR pair. On a
// match it returns the inner text, the number of bytes consumed from the
// front of buf (so the caller can drain its read buffer), and true. Bytes
// before a VT are discarded as a malformed preamble (spec.md §4.2); if no
// complete frame is present yet, it returns (nil, n, false), where n is the
// length of any preamble before the VT (0 when buf starts with VT or holds
// no VT), so the caller can drop those bytes, append more, and retry.
func Extract(buf []byte) (text []byte, consumed int, ok bool) {
	vtIdx := bytes.IndexByte(buf, VT)
	if vtIdx < 0 {
		return nil, 0, false
	}

	rest := buf[vtIdx+1:]
	endIdx := bytes.Index(rest, []byte{FS, CR})
	if endIdx < 0 {
		// incomplete frame; caller should discard the malformed preamble
		// (everything before VT) but wait for more bytes for the rest.
		if vtIdx > 0 {
			return nil, vtIdx, false
		}
		return nil, 0, false
	}

	inner := make([]byte, endIdx)
	copy(inner, rest[:endIdx])
	return inner, vtIdx + 1 + endIdx + 2, true
}
