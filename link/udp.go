package link

import (
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

const udpHeaderSize = 8

// UDPPseudoHeaderSource is implemented by a parent PDU that can supply
// the pseudo-header sum for a UDP payload's checksum.
type UDPPseudoHeaderSource interface {
	UDPPseudoHeaderSum(upperLayerLength uint16) uint32
}

// UDP is the 8-byte UDP header PDU. It dispatches its payload through
// the next-protocol registry by destination port first, then source
// port, falling back to Raw — this is how the BTH specimen, registered
// at destination port 4791, gets selected.
type UDP struct {
	pdu.Base

	sport, dport uint16
	length       uint16
	checksum     uint16
}

// NewUDP constructs a UDP header for the given ports.
func NewUDP(sport, dport uint16) *UDP {
	return &UDP{sport: sport, dport: dport}
}

// ExtractMetadataUDP is the static probe for UDP's fixed 8-byte header.
func ExtractMetadataUDP(data []byte) (pdu.Metadata, error) {
	if len(data) < udpHeaderSize {
		return pdu.Metadata{}, fmt.Errorf("%w: UDP needs %d bytes, have %d", pdu.ErrMalformedPacket, udpHeaderSize, len(data))
	}
	// The registry maps ports to constructors, not Kinds, so the metadata
	// probe can't report the next layer's Kind without a full parse.
	return pdu.Metadata{HeaderSize: udpHeaderSize, Kind: pdu.KindUDP, NextKind: pdu.KindRaw}, nil
}

// ParseUDP builds a UDP header from data and recurses into whatever
// next-protocol registry entry matches the destination or source port,
// falling back to Raw.
func ParseUDP(data []byte) (pdu.PDU, error) {
	if len(data) < udpHeaderSize {
		return nil, fmt.Errorf("%w: UDP needs %d bytes, have %d", pdu.ErrMalformedPacket, udpHeaderSize, len(data))
	}
	u := &UDP{}
	u.sport = uint16(data[0])<<8 | uint16(data[1])
	u.dport = uint16(data[2])<<8 | uint16(data[3])
	u.length = uint16(data[4])<<8 | uint16(data[5])
	u.checksum = uint16(data[6])<<8 | uint16(data[7])

	if int(u.length) > len(data) || int(u.length) < udpHeaderSize {
		u.SetMalformed(true)
		return u, nil
	}
	rest := data[udpHeaderSize:u.length]

	ctor, ok := pdu.LookupNext(pdu.KindUDP, uint32(u.dport), pdu.DstPort)
	if !ok {
		ctor, ok = pdu.LookupNext(pdu.KindUDP, uint32(u.sport), pdu.SrcPort)
	}
	var inner pdu.PDU
	var err error
	if ok {
		inner, err = ctor(rest)
	} else {
		inner = pdu.NewRaw(rest)
	}
	if err != nil {
		return nil, err
	}
	pdu.Attach(u, inner)
	return u, nil
}

func (u *UDP) HeaderSize() int  { return udpHeaderSize }
func (u *UDP) TrailerSize() int { return 0 }
func (u *UDP) Size() int        { return pdu.SizeOf(u) }
func (u *UDP) Kind() pdu.Kind   { return pdu.KindUDP }

func (u *UDP) Clone() pdu.PDU {
	clone := *u
	clone.SetInnerPDU(nil)
	if inner := u.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

func (u *UDP) SrcPort() uint16     { return u.sport }
func (u *UDP) SetSrcPort(v uint16) { u.sport = v }
func (u *UDP) DstPort() uint16     { return u.dport }
func (u *UDP) SetDstPort(v uint16) { u.dport = v }
func (u *UDP) Checksum() uint16    { return u.checksum }

func (u *UDP) Serialize(buf []byte) error {
	length := uint16(u.Size())
	w := pdu.NewWriter(buf)
	w.PutUint16(u.sport)
	w.PutUint16(u.dport)
	w.PutUint16(length)
	checksumOffset := w.Offset()
	w.PutUint16(0)

	if inner := u.InnerPDU(); inner != nil {
		innerSize := inner.Size()
		off := w.Offset()
		w.Skip(innerSize)
		if err := inner.Serialize(buf[off : off+innerSize]); err != nil {
			return err
		}
	}

	var pseudoSum uint32
	if src, ok := u.ParentPDU().(UDPPseudoHeaderSource); ok {
		pseudoSum = src.UDPPseudoHeaderSum(length)
	}
	check := pdu.InternetChecksum(pseudoSum, buf[:length], 0)
	buf[checksumOffset] = byte(check >> 8)
	buf[checksumOffset+1] = byte(check)
	u.checksum = check
	return nil
}

func (u *UDP) MatchesResponse(data []byte) bool {
	if len(data) < udpHeaderSize {
		return false
	}
	otherSPort := uint16(data[0])<<8 | uint16(data[1])
	otherDPort := uint16(data[2])<<8 | uint16(data[3])
	if otherSPort != u.dport || otherDPort != u.sport {
		return false
	}
	if inner := u.InnerPDU(); inner != nil {
		return inner.MatchesResponse(data[udpHeaderSize:])
	}
	return true
}
