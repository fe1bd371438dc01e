package tcp

import (
	"encoding/binary"
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

// OptionKind identifies a TCP option. Values are the IANA TCP option kind
// numbers (RFC 793 plus the option RFCs named below); unknown kinds pass
// through unchanged with whatever payload was read.
type OptionKind uint8

const (
	EOL      OptionKind = 0 // RFC 793: end of option list
	NOP      OptionKind = 1 // RFC 793: no operation, used for padding
	MSS      OptionKind = 2 // RFC 793: maximum segment size
	WSCALE   OptionKind = 3 // RFC 1323: window scale
	SACKOK   OptionKind = 4 // RFC 2018: SACK permitted
	SACK     OptionKind = 5 // RFC 2018: selective acknowledgment
	TSOPT    OptionKind = 8 // RFC 1323: timestamps
	ALTCHK   OptionKind = 14 // RFC 1146: alternate checksum request
)

// AltChecksum identifies the algorithm requested by an ALTCHK option.
type AltChecksum uint8

const (
	AltChecksumTCP  AltChecksum = 0
	AltChecksumOnes AltChecksum = 1
	AltChecksum8bit AltChecksum = 2
)

// Option is a single parsed TCP option: its kind and raw payload bytes
// (empty for EOL/NOP/SACKOK, which carry no payload). LengthField, when
// non-zero, overrides the length byte written on serialization. Parsing
// sets it to the length byte as read; a caller can set it to write a
// mismatched length, mirroring the original's
// "length_field() == data_size()" check in write_option.
type Option struct {
	Kind        OptionKind
	Payload     []byte
	LengthField uint8
}

func (o Option) wireLength() int {
	if o.Kind == EOL || o.Kind == NOP {
		return 1
	}
	return 2 + len(o.Payload)
}

func writeOption(w *pdu.Writer, o Option) {
	w.PutUint8(uint8(o.Kind))
	if o.Kind == EOL || o.Kind == NOP {
		return
	}
	length := o.LengthField
	if length == 0 {
		length = uint8(2 + len(o.Payload))
	}
	w.PutUint8(length)
	w.PutBytes(o.Payload)
}

// optionsSize is the unpadded byte length of the option list: one byte
// per EOL/NOP, two plus payload length for everything else (SACKOK
// contributes its two bytes of kind+length despite an empty payload).
func optionsSize(opts []Option) int {
	size := 0
	for _, o := range opts {
		size += o.wireLength()
	}
	return size
}

// padOptionsSize rounds size up to the next multiple of 4.
func padOptionsSize(size int) int {
	if rem := size & 3; rem != 0 {
		return size - rem + 4
	}
	return size
}

// parseOptions reads options from the base-header-end to headerEnd,
// following the fail-soft rules: EOL skips the remainder and stops, NOP
// is a zero-payload option, and any option whose declared length would
// overrun headerEnd or is shorter than 2 bytes makes the caller mark the
// whole segment malformed.
func parseOptions(r *pdu.Reader, headerEnd int) ([]Option, bool, error) {
	var opts []Option
	for r.Offset() < headerEnd {
		kindByte, err := r.Uint8()
		if err != nil {
			return opts, true, nil
		}
		kind := OptionKind(kindByte)
		if kind == EOL {
			if err := r.Skip(headerEnd - r.Offset()); err != nil {
				return opts, true, nil
			}
			break
		}
		if kind == NOP {
			opts = append(opts, Option{Kind: NOP})
			continue
		}
		length, err := r.Uint8()
		if err != nil {
			return opts, true, nil
		}
		if length < 2 {
			return opts, true, nil
		}
		payloadLen := int(length) - 2
		if r.Offset()+payloadLen > headerEnd {
			return opts, true, nil
		}
		payload, err := r.Bytes(payloadLen)
		if err != nil {
			return opts, true, nil
		}
		opts = append(opts, Option{Kind: kind, Payload: payload, LengthField: length})
	}
	return opts, false, nil
}

func searchOption(opts []Option, kind OptionKind) *Option {
	for i := range opts {
		if opts[i].Kind == kind {
			return &opts[i]
		}
	}
	return nil
}

func genericSearchUint16(opts []Option, kind OptionKind) (uint16, error) {
	opt := searchOption(opts, kind)
	if opt == nil || len(opt.Payload) < 2 {
		return 0, fmt.Errorf("%w: %d", pdu.ErrOptionNotFound, kind)
	}
	return binary.BigEndian.Uint16(opt.Payload), nil
}

func genericSearchUint8(opts []Option, kind OptionKind) (uint8, error) {
	opt := searchOption(opts, kind)
	if opt == nil || len(opt.Payload) < 1 {
		return 0, fmt.Errorf("%w: %d", pdu.ErrOptionNotFound, kind)
	}
	return opt.Payload[0], nil
}
