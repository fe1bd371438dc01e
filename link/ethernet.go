// Package link provides minimal fixed-header PDUs for the link and
// network layers that sit above a captured frame and below the
// specimen protocols this module exists to dissect: Ethernet, IPv4, and
// UDP. They carry no address-formatting helpers of their own — their
// only job is to give TCP and BTH a parent PDU to read pseudo-header
// fields from, and to give the next-protocol registry something to
// dispatch through.
package link

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"github.com/cerebras/gotins/pdu"
)

const ethernetHeaderSize = 14

// Ethernet is a bare Ethernet II frame header: destination and source
// MAC addresses plus an EtherType, with no 802.1Q tag support.
type Ethernet struct {
	pdu.Base

	dst, src  [6]byte
	etherType layers.EthernetType
}

// NewEthernet constructs an Ethernet frame header with the given
// addresses and EtherType.
func NewEthernet(dst, src [6]byte, etherType layers.EthernetType) *Ethernet {
	return &Ethernet{dst: dst, src: src, etherType: etherType}
}

// ExtractMetadata is the static probe for Ethernet's fixed-size header.
func ExtractMetadata(data []byte) (pdu.Metadata, error) {
	if len(data) < ethernetHeaderSize {
		return pdu.Metadata{}, fmt.Errorf("%w: Ethernet needs %d bytes, have %d", pdu.ErrMalformedPacket, ethernetHeaderSize, len(data))
	}
	etherType := layers.EthernetType(uint16(data[12])<<8 | uint16(data[13]))
	return pdu.Metadata{HeaderSize: ethernetHeaderSize, Kind: pdu.KindEthernet, NextKind: etherTypeToKind(etherType)}, nil
}

func etherTypeToKind(t layers.EthernetType) pdu.Kind {
	switch t {
	case layers.EthernetTypeIPv4:
		return pdu.KindIPv4
	case layers.EthernetTypeIPv6:
		return pdu.KindIPv6
	default:
		return pdu.KindRaw
	}
}

// ParseEthernet builds an Ethernet header from data and recurses into
// IPv4, IPv6 (as Raw, since IPv6 itself is out of scope), or Raw
// depending on EtherType.
func ParseEthernet(data []byte) (pdu.PDU, error) {
	if len(data) < ethernetHeaderSize {
		return nil, fmt.Errorf("%w: Ethernet needs %d bytes, have %d", pdu.ErrMalformedPacket, ethernetHeaderSize, len(data))
	}
	e := &Ethernet{}
	copy(e.dst[:], data[0:6])
	copy(e.src[:], data[6:12])
	e.etherType = layers.EthernetType(uint16(data[12])<<8 | uint16(data[13]))

	rest := data[ethernetHeaderSize:]
	var inner pdu.PDU
	var err error
	switch e.etherType {
	case layers.EthernetTypeIPv4:
		inner, err = ParseIPv4(rest)
	default:
		inner = pdu.NewRaw(rest)
	}
	if err != nil {
		return nil, err
	}
	pdu.Attach(e, inner)
	return e, nil
}

func (e *Ethernet) HeaderSize() int  { return ethernetHeaderSize }
func (e *Ethernet) TrailerSize() int { return 0 }
func (e *Ethernet) Size() int        { return pdu.SizeOf(e) }
func (e *Ethernet) Kind() pdu.Kind   { return pdu.KindEthernet }

func (e *Ethernet) Clone() pdu.PDU {
	clone := *e
	clone.SetInnerPDU(nil)
	if inner := e.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

func (e *Ethernet) DstMAC() [6]byte                    { return e.dst }
func (e *Ethernet) SetDstMAC(v [6]byte)                { e.dst = v }
func (e *Ethernet) SrcMAC() [6]byte                    { return e.src }
func (e *Ethernet) SetSrcMAC(v [6]byte)                { e.src = v }
func (e *Ethernet) EtherType() layers.EthernetType     { return e.etherType }
func (e *Ethernet) SetEtherType(v layers.EthernetType) { e.etherType = v }

func (e *Ethernet) Serialize(buf []byte) error {
	w := pdu.NewWriter(buf)
	w.PutBytes(e.dst[:])
	w.PutBytes(e.src[:])
	w.PutUint16(uint16(e.etherType))
	if inner := e.InnerPDU(); inner != nil {
		innerSize := inner.Size()
		off := w.Offset()
		w.Skip(innerSize)
		return inner.Serialize(buf[off : off+innerSize])
	}
	return nil
}

func (e *Ethernet) MatchesResponse(data []byte) bool {
	if len(data) < ethernetHeaderSize {
		return false
	}
	if inner := e.InnerPDU(); inner != nil {
		return inner.MatchesResponse(data[ethernetHeaderSize:])
	}
	return true
}
