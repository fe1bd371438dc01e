// Package tcp implements the TCP transport-layer PDU: RFC 793's base
// header, the standard option set (MSS, window scale, SACK permitted,
// SACK, timestamps, alternate checksum request), and the RFC 1071
// checksum computed against whichever pseudo-header the parent PDU can
// supply.
package tcp

import (
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

const baseHeaderSize = 20

// DefaultWindow is used by New when the caller doesn't set one explicitly.
const DefaultWindow uint16 = 32678

// Flag identifies one of the eight control bits in the TCP header.
type Flag int

const (
	FIN Flag = iota
	SYN
	RST
	PSH
	ACK
	URG
	ECE
	CWR
)

// PseudoHeaderSource is implemented by a parent PDU (such as link.IPv4)
// that can supply the fields TCP needs to compute its
// checksum. A TCP with no such parent treats its pseudo-header
// contribution as zero.
type PseudoHeaderSource interface {
	TCPPseudoHeaderSum(upperLayerLength uint16) uint32
}

// TCP is the base-header-plus-options PDU for a TCP segment.
type TCP struct {
	pdu.Base

	sport, dport   uint16
	seq, ackSeq    uint32
	res1           uint8 // 4 reserved bits preceding the data offset nibble
	dataOffset     uint8 // in 32-bit words, as on the wire
	flags          uint8 // FIN..CWR packed as bit 0..7
	window         uint16
	checksum       uint16
	urgPtr         uint16
	options        []Option
}

// New constructs a TCP segment with the given ports, a default window,
// and a data offset sized for a bare 20-byte header with no options.
func New(sport, dport uint16) *TCP {
	t := &TCP{
		sport:      sport,
		dport:      dport,
		window:     DefaultWindow,
		dataOffset: baseHeaderSize / 4,
	}
	return t
}

// ExtractMetadata is the static probe: the header size it reports is the
// data offset field's claim, not yet validated against total_sz.
func ExtractMetadata(data []byte) (pdu.Metadata, error) {
	if len(data) < baseHeaderSize {
		return pdu.Metadata{}, fmt.Errorf("%w: TCP needs %d bytes, have %d", pdu.ErrMalformedPacket, baseHeaderSize, len(data))
	}
	doff := int(data[12] >> 4)
	return pdu.Metadata{HeaderSize: doff * 4, Kind: pdu.KindTCP, NextKind: pdu.KindRaw}, nil
}

// Parse builds a TCP from data, following the fail-soft option-parsing
// rules, and recurses into whatever next-protocol registry entry
// matches the source or destination port, falling back to Raw.
func Parse(data []byte) (pdu.PDU, error) {
	if len(data) < baseHeaderSize {
		return nil, fmt.Errorf("%w: TCP needs %d bytes, have %d", pdu.ErrMalformedPacket, baseHeaderSize, len(data))
	}
	t := &TCP{}
	r := pdu.NewReader(data)

	sport, _ := r.Uint16()
	dport, _ := r.Uint16()
	seq, _ := r.Uint32()
	ackSeq, _ := r.Uint32()
	doffRes, _ := r.Uint8()
	flagsByte, _ := r.Uint8()
	window, _ := r.Uint16()
	checksum, _ := r.Uint16()
	urgPtr, _ := r.Uint16()

	t.sport = sport
	t.dport = dport
	t.seq = seq
	t.ackSeq = ackSeq
	t.dataOffset = doffRes >> 4
	t.res1 = doffRes & 0xF
	t.flags = flagsByte
	t.window = window
	t.checksum = checksum
	t.urgPtr = urgPtr

	headerBytes := int(t.dataOffset) * 4
	if headerBytes > len(data) || headerBytes < baseHeaderSize {
		t.SetMalformed(true)
		return t, nil
	}

	opts, malformed, err := parseOptions(r, headerBytes)
	if err != nil {
		return nil, err
	}
	t.options = opts
	if malformed {
		t.SetMalformed(true)
		return t, nil
	}

	if r.Remaining() > 0 {
		rest := r.Rest()
		ctor, ok := pdu.LookupNext(pdu.KindTCP, uint32(dport), pdu.DstPort)
		if !ok {
			ctor, ok = pdu.LookupNext(pdu.KindTCP, uint32(sport), pdu.SrcPort)
		}
		var inner pdu.PDU
		if ok {
			inner, err = ctor(rest)
			if err != nil {
				return nil, err
			}
		} else {
			inner = pdu.NewRaw(rest)
		}
		pdu.Attach(t, inner)
	}

	return t, nil
}

func (t *TCP) HeaderSize() int {
	return baseHeaderSize + padOptionsSize(optionsSize(t.options))
}

func (t *TCP) TrailerSize() int { return 0 }
func (t *TCP) Size() int        { return pdu.SizeOf(t) }
func (t *TCP) Kind() pdu.Kind   { return pdu.KindTCP }

func (t *TCP) Clone() pdu.PDU {
	clone := *t
	clone.options = append([]Option(nil), t.options...)
	clone.SetInnerPDU(nil)
	if inner := t.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

func (t *TCP) SrcPort() uint16     { return t.sport }
func (t *TCP) SetSrcPort(v uint16) { t.sport = v }
func (t *TCP) DstPort() uint16     { return t.dport }
func (t *TCP) SetDstPort(v uint16) { t.dport = v }
func (t *TCP) Seq() uint32         { return t.seq }
func (t *TCP) SetSeq(v uint32)     { t.seq = v }
func (t *TCP) AckSeq() uint32      { return t.ackSeq }
func (t *TCP) SetAckSeq(v uint32)  { t.ackSeq = v }
func (t *TCP) Window() uint16      { return t.window }
func (t *TCP) SetWindow(v uint16)  { t.window = v }
func (t *TCP) Checksum() uint16    { return t.checksum }
func (t *TCP) SetChecksum(v uint16) { t.checksum = v }
func (t *TCP) UrgPtr() uint16      { return t.urgPtr }
func (t *TCP) SetUrgPtr(v uint16)  { t.urgPtr = v }

// DataOffset returns the header size in 32-bit words, as written on the
// wire. It has no setter: Serialize recomputes it from the option list
// every time.
func (t *TCP) DataOffset() uint8 { return t.dataOffset }

func flagBit(f Flag) uint8 {
	switch f {
	case FIN:
		return 1 << 0
	case SYN:
		return 1 << 1
	case RST:
		return 1 << 2
	case PSH:
		return 1 << 3
	case ACK:
		return 1 << 4
	case URG:
		return 1 << 5
	case ECE:
		return 1 << 6
	case CWR:
		return 1 << 7
	default:
		return 0
	}
}

// Flag reports whether the given control bit is set.
func (t *TCP) Flag(f Flag) bool { return t.flags&flagBit(f) != 0 }

// SetFlag sets or clears the given control bit.
func (t *TCP) SetFlag(f Flag, v bool) {
	bit := flagBit(f)
	if v {
		t.flags |= bit
	} else {
		t.flags &^= bit
	}
}

// Flags returns all eight control bits packed into the low byte,
// matching the original's flags() accessor shape (it additionally
// folds in four reserved bits above them; this module keeps those
// separately, preserves them across parse and serialize, and has no
// accessor for them).
func (t *TCP) Flags() uint8 { return t.flags }

// SetFlags replaces all eight control bits at once.
func (t *TCP) SetFlags(v uint8) { t.flags = v }

// AddOption appends opt to the option list, preserving insertion order;
// duplicates of the same kind are allowed.
func (t *TCP) AddOption(opt Option) { t.options = append(t.options, opt) }

// RemoveOption removes the first option of the given kind, reporting
// whether one was found.
func (t *TCP) RemoveOption(kind OptionKind) bool {
	for i, o := range t.options {
		if o.Kind == kind {
			t.options = append(t.options[:i], t.options[i+1:]...)
			return true
		}
	}
	return false
}

// Options returns the option list in wire order.
func (t *TCP) Options() []Option { return t.options }

// SetMSS adds an MSS option carrying value.
func (t *TCP) SetMSS(value uint16) {
	payload := make([]byte, 2)
	payload[0] = byte(value >> 8)
	payload[1] = byte(value)
	t.AddOption(Option{Kind: MSS, Payload: payload})
}

// MSS returns the MSS option's value.
func (t *TCP) MSS() (uint16, error) { return genericSearchUint16(t.options, MSS) }

// SetWindowScale adds a WSCALE option carrying value.
func (t *TCP) SetWindowScale(value uint8) {
	t.AddOption(Option{Kind: WSCALE, Payload: []byte{value}})
}

// WindowScale returns the WSCALE option's value.
func (t *TCP) WindowScale() (uint8, error) { return genericSearchUint8(t.options, WSCALE) }

// SetSACKPermitted adds a zero-payload SACKOK option.
func (t *TCP) SetSACKPermitted() { t.AddOption(Option{Kind: SACKOK}) }

// HasSACKPermitted reports whether a SACKOK option is present.
func (t *TCP) HasSACKPermitted() bool { return searchOption(t.options, SACKOK) != nil }

// SACKEdge is one left/right edge pair of a SACK option block.
type SACKEdge struct {
	Left, Right uint32
}

// SetSACK adds a SACK option carrying edges as consecutive big-endian
// uint32 pairs.
func (t *TCP) SetSACK(edges []SACKEdge) {
	payload := make([]byte, len(edges)*8)
	for i, e := range edges {
		off := i * 8
		putUint32(payload[off:], e.Left)
		putUint32(payload[off+4:], e.Right)
	}
	t.AddOption(Option{Kind: SACK, Payload: payload})
}

// SACK returns the parsed SACK option edges.
func (t *TCP) SACK() ([]SACKEdge, error) {
	opt := searchOption(t.options, SACK)
	if opt == nil || len(opt.Payload)%8 != 0 {
		return nil, fmt.Errorf("%w: SACK", pdu.ErrOptionNotFound)
	}
	edges := make([]SACKEdge, len(opt.Payload)/8)
	for i := range edges {
		off := i * 8
		edges[i] = SACKEdge{
			Left:  getUint32(opt.Payload[off:]),
			Right: getUint32(opt.Payload[off+4:]),
		}
	}
	return edges, nil
}

// SetTimestamp adds a TSOPT option carrying value and its echo reply.
func (t *TCP) SetTimestamp(value, reply uint32) {
	payload := make([]byte, 8)
	putUint32(payload, value)
	putUint32(payload[4:], reply)
	t.AddOption(Option{Kind: TSOPT, Payload: payload})
}

// Timestamp returns the TSOPT option's (value, reply) pair.
func (t *TCP) Timestamp() (uint32, uint32, error) {
	opt := searchOption(t.options, TSOPT)
	if opt == nil || len(opt.Payload) < 8 {
		return 0, 0, fmt.Errorf("%w: TSOPT", pdu.ErrOptionNotFound)
	}
	return getUint32(opt.Payload), getUint32(opt.Payload[4:]), nil
}

// SetAltChecksum adds an ALTCHK option requesting alg.
func (t *TCP) SetAltChecksum(alg AltChecksum) {
	t.AddOption(Option{Kind: ALTCHK, Payload: []byte{byte(alg)}})
}

// AltChecksum returns the requested alternate checksum algorithm.
func (t *TCP) AltChecksum() (AltChecksum, error) {
	v, err := genericSearchUint8(t.options, ALTCHK)
	return AltChecksum(v), err
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Serialize writes the base header with a zeroed checksum field, the
// options padded to a 4-byte boundary, recurses into the inner PDU, and
// finally patches in the checksum computed over the whole segment plus
// whatever pseudo-header the parent PDU supplies.
func (t *TCP) Serialize(buf []byte) error {
	optionsSz := optionsSize(t.options)
	paddedOptionsSz := padOptionsSize(optionsSz)
	t.dataOffset = uint8((baseHeaderSize + paddedOptionsSz) / 4)

	w := pdu.NewWriter(buf)
	w.PutUint16(t.sport)
	w.PutUint16(t.dport)
	w.PutUint32(t.seq)
	w.PutUint32(t.ackSeq)
	w.PutUint8(t.dataOffset<<4 | (t.res1 & 0xF))
	w.PutUint8(t.flags)
	w.PutUint16(t.window)
	checksumOffset := w.Offset()
	w.PutUint16(0)
	w.PutUint16(t.urgPtr)

	for _, opt := range t.options {
		writeOption(w, opt)
	}
	w.Skip(paddedOptionsSz - optionsSz)

	if inner := t.InnerPDU(); inner != nil {
		innerSize := inner.Size()
		innerOff := w.Offset()
		w.Skip(innerSize)
		if err := inner.Serialize(buf[innerOff : innerOff+innerSize]); err != nil {
			return err
		}
	}

	check := t.calculateChecksum(buf)
	buf[checksumOffset] = byte(check >> 8)
	buf[checksumOffset+1] = byte(check)
	t.checksum = check
	return nil
}

func (t *TCP) calculateChecksum(segment []byte) uint16 {
	var pseudoSum uint32
	if src, ok := t.ParentPDU().(PseudoHeaderSource); ok {
		pseudoSum = src.TCPPseudoHeaderSum(uint16(len(segment)))
	}
	// Serialize has already zeroed the checksum field in segment, so there
	// is no stored value in the buffer to subtract.
	return pdu.InternetChecksum(pseudoSum, segment, 0)
}

// MatchesResponse reports whether data, read as a TCP segment, is a
// response to this one: source and destination ports swapped, then
// delegating past the data-offset boundary to the inner PDU.
func (t *TCP) MatchesResponse(data []byte) bool {
	if len(data) < baseHeaderSize {
		return false
	}
	otherSPort := uint16(data[0])<<8 | uint16(data[1])
	otherDPort := uint16(data[2])<<8 | uint16(data[3])
	if otherSPort != t.dport || otherDPort != t.sport {
		return false
	}
	dataOffset := int(data[12]>>4) * 4
	sz := dataOffset
	if len(data) < sz {
		sz = len(data)
	}
	if inner := t.InnerPDU(); inner != nil {
		return inner.MatchesResponse(data[sz:])
	}
	return true
}
