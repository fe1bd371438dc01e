package dns

import (
	"fmt"
	"strings"

	"github.com/cerebras/gotins/pdu"
)

const maxNamePointerJumps = 32

// encodeName renders a dotted name as a sequence of length-prefixed
// labels terminated by a zero byte, with no compression applied. The
// root name encodes as a single zero byte.
func encodeName(name string) []byte {
	if name == "" {
		return []byte{0}
	}
	parts := strings.Split(name, ".")
	buf := make([]byte, 0, len(name)+2)
	for _, p := range parts {
		buf = append(buf, byte(len(p)))
		buf = append(buf, p...)
	}
	return append(buf, 0)
}

// decodeName reads a (possibly compressed) name starting at start within
// the full message buffer data, following 14-bit back-pointers per RFC
// 1035 §4.1.4. It returns the dotted name and the offset immediately
// following this name's own on-wire encoding at start — that is, after
// the terminating zero byte for an uncompressed name, or after the
// two-byte pointer if one is encountered, whichever comes first; bytes
// reached only by following a pointer never advance that return offset.
func decodeName(data []byte, start int) (string, int, error) {
	var labels []string
	offset := start
	consumedEnd := -1
	jumps := 0

	for {
		if offset >= len(data) {
			return "", 0, fmt.Errorf("%w: name runs past end of message", pdu.ErrMalformedPacket)
		}
		b := data[offset]
		if b&0xC0 == 0xC0 {
			if offset+1 >= len(data) {
				return "", 0, fmt.Errorf("%w: truncated name pointer", pdu.ErrMalformedPacket)
			}
			if consumedEnd == -1 {
				consumedEnd = offset + 2
			}
			jumps++
			if jumps > maxNamePointerJumps {
				return "", 0, fmt.Errorf("%w: name pointer loop", pdu.ErrMalformedPacket)
			}
			offset = (int(b&0x3F) << 8) | int(data[offset+1])
			continue
		}
		if b == 0 {
			if consumedEnd == -1 {
				consumedEnd = offset + 1
			}
			break
		}
		length := int(b)
		if offset+1+length > len(data) {
			return "", 0, fmt.Errorf("%w: label runs past end of message", pdu.ErrMalformedPacket)
		}
		labels = append(labels, string(data[offset+1:offset+1+length]))
		offset += 1 + length
	}
	return strings.Join(labels, "."), consumedEnd, nil
}

// pointerBytes renders a 14-bit compression pointer to offset as its
// two-byte wire form: the top two bits of the first byte set to 11.
func pointerBytes(offset uint16) [2]byte {
	return [2]byte{byte(0xC0 | (offset>>8)&0x3F), byte(offset)}
}
