package link

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"github.com/cerebras/gotins/pdu"
	"github.com/cerebras/gotins/tcp"
)

const ipv4HeaderSize = 20

// IPv4 is a bare IPv4 header with no option support: just enough of
// RFC 791 to give TCP, UDP, and BTH a parent PDU to read pseudo-header
// fields and the next-protocol number from.
type IPv4 struct {
	pdu.Base

	tos          uint8
	id           uint16
	flagsFragOff uint16
	ttl          uint8
	protocol     layers.IPProtocol
	checksum     uint16
	src, dst     [4]byte
}

// NewIPv4 constructs an IPv4 header for the given addresses and
// next-protocol number, with a default TTL of 64.
func NewIPv4(src, dst [4]byte, protocol layers.IPProtocol) *IPv4 {
	return &IPv4{src: src, dst: dst, protocol: protocol, ttl: 64}
}

// ExtractMetadataIPv4 is the static probe for IPv4's header, read off the
// IHL nibble (options are not supported, so this module always treats
// IHL as giving the true header size even though it doesn't parse any
// option bytes beyond the fixed 20).
func ExtractMetadataIPv4(data []byte) (pdu.Metadata, error) {
	if len(data) < ipv4HeaderSize {
		return pdu.Metadata{}, fmt.Errorf("%w: IPv4 needs %d bytes, have %d", pdu.ErrMalformedPacket, ipv4HeaderSize, len(data))
	}
	ihl := int(data[0]&0xF) * 4
	protocol := layers.IPProtocol(data[9])
	return pdu.Metadata{HeaderSize: ihl, Kind: pdu.KindIPv4, NextKind: protocolToKind(protocol)}, nil
}

func protocolToKind(p layers.IPProtocol) pdu.Kind {
	switch p {
	case layers.IPProtocolTCP:
		return pdu.KindTCP
	case layers.IPProtocolUDP:
		return pdu.KindUDP
	default:
		return pdu.KindRaw
	}
}

// ParseIPv4 builds an IPv4 header from data. Any IHL greater than 5
// (i.e. any options) is treated as malformed, since this module doesn't
// carry an IPv4 options parser.
func ParseIPv4(data []byte) (pdu.PDU, error) {
	if len(data) < ipv4HeaderSize {
		return nil, fmt.Errorf("%w: IPv4 needs %d bytes, have %d", pdu.ErrMalformedPacket, ipv4HeaderSize, len(data))
	}
	ip := &IPv4{}
	ihl := int(data[0] & 0xF)
	ip.tos = data[1]
	totalLength := uint16(data[2])<<8 | uint16(data[3])
	ip.id = uint16(data[4])<<8 | uint16(data[5])
	ip.flagsFragOff = uint16(data[6])<<8 | uint16(data[7])
	ip.ttl = data[8]
	ip.protocol = layers.IPProtocol(data[9])
	ip.checksum = uint16(data[10])<<8 | uint16(data[11])
	copy(ip.src[:], data[12:16])
	copy(ip.dst[:], data[16:20])

	if ihl != 5 || int(totalLength) > len(data) || int(totalLength) < ipv4HeaderSize {
		ip.SetMalformed(true)
		return ip, nil
	}

	rest := data[ipv4HeaderSize:totalLength]
	var inner pdu.PDU
	var err error
	switch ip.protocol {
	case layers.IPProtocolTCP:
		inner, err = tcp.Parse(rest)
	case layers.IPProtocolUDP:
		inner, err = ParseUDP(rest)
	default:
		inner = pdu.NewRaw(rest)
	}
	if err != nil {
		return nil, err
	}
	pdu.Attach(ip, inner)
	return ip, nil
}

func (ip *IPv4) HeaderSize() int  { return ipv4HeaderSize }
func (ip *IPv4) TrailerSize() int { return 0 }
func (ip *IPv4) Size() int        { return pdu.SizeOf(ip) }
func (ip *IPv4) Kind() pdu.Kind   { return pdu.KindIPv4 }

func (ip *IPv4) Clone() pdu.PDU {
	clone := *ip
	clone.SetInnerPDU(nil)
	if inner := ip.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

func (ip *IPv4) SrcAddr() [4]byte                { return ip.src }
func (ip *IPv4) SetSrcAddr(v [4]byte)            { ip.src = v }
func (ip *IPv4) DstAddr() [4]byte                { return ip.dst }
func (ip *IPv4) SetDstAddr(v [4]byte)            { ip.dst = v }
func (ip *IPv4) TTL() uint8                      { return ip.ttl }
func (ip *IPv4) SetTTL(v uint8)                  { ip.ttl = v }
func (ip *IPv4) Protocol() layers.IPProtocol     { return ip.protocol }
func (ip *IPv4) SetProtocol(v layers.IPProtocol) { ip.protocol = v }
func (ip *IPv4) ID() uint16                      { return ip.id }
func (ip *IPv4) SetID(v uint16)                  { ip.id = v }
func (ip *IPv4) Checksum() uint16                { return ip.checksum }

// TCPPseudoHeaderSum and UDPPseudoHeaderSum implement the pseudo-header
// source interfaces (tcp.PseudoHeaderSource and UDPPseudoHeaderSource)
// that tcp.TCP and UDP expect from their parent PDU.
func (ip *IPv4) TCPPseudoHeaderSum(upperLayerLength uint16) uint32 {
	return pdu.PseudoHeaderChecksumV4(ip.src, ip.dst, upperLayerLength, uint8(layers.IPProtocolTCP))
}

func (ip *IPv4) UDPPseudoHeaderSum(upperLayerLength uint16) uint32 {
	return pdu.PseudoHeaderChecksumV4(ip.src, ip.dst, upperLayerLength, uint8(layers.IPProtocolUDP))
}

// Serialize writes the 20-byte header with a zeroed checksum field,
// recurses into the inner PDU, then patches in this header's own RFC
// 1071 checksum — independent of whatever pseudo-header checksum the
// inner PDU computed against these same address fields.
func (ip *IPv4) Serialize(buf []byte) error {
	totalLength := uint16(ip.Size())
	w := pdu.NewWriter(buf)
	w.PutUint8(0x45) // version 4, IHL 5 (no options)
	w.PutUint8(ip.tos)
	w.PutUint16(totalLength)
	w.PutUint16(ip.id)
	w.PutUint16(ip.flagsFragOff)
	w.PutUint8(ip.ttl)
	w.PutUint8(uint8(ip.protocol))
	checksumOffset := w.Offset()
	w.PutUint16(0)
	w.PutBytes(ip.src[:])
	w.PutBytes(ip.dst[:])

	if inner := ip.InnerPDU(); inner != nil {
		innerSize := inner.Size()
		off := w.Offset()
		w.Skip(innerSize)
		if err := inner.Serialize(buf[off : off+innerSize]); err != nil {
			return err
		}
	}

	check := pdu.InternetChecksum(0, buf[:ipv4HeaderSize], 0)
	buf[checksumOffset] = byte(check >> 8)
	buf[checksumOffset+1] = byte(check)
	ip.checksum = check
	return nil
}

func (ip *IPv4) MatchesResponse(data []byte) bool {
	if len(data) < ipv4HeaderSize {
		return false
	}
	var otherSrc, otherDst [4]byte
	copy(otherSrc[:], data[12:16])
	copy(otherDst[:], data[16:20])
	if otherSrc != ip.dst || otherDst != ip.src {
		return false
	}
	if inner := ip.InnerPDU(); inner != nil {
		return inner.MatchesResponse(data[ipv4HeaderSize:])
	}
	return true
}
