// Package pdu provides the layered protocol-data-unit engine shared by every
// layer implementation in this module: the PDU trait, the inner/parent
// composition helper, the next-protocol registry, the byte-stream cursors,
// and the bounded-integer types used for sub-byte and 24-bit wire fields.
//
// A parsed packet is a tree of PDUs, always a straight line in practice
// (Ethernet -> IPv4 -> UDP -> BTH, or IPv4 -> TCP -> Raw): each PDU owns at
// most one inner PDU and holds a non-owning pointer back to its parent,
// used only when a checksum needs pseudo-header fields that live one layer
// up. Serialization walks the same tree top-down into one preallocated
// buffer; checksums are patched in after the inner PDU has written its own
// bytes, since some of them cover the full remaining packet.
package pdu

// Kind identifies a PDU's concrete layer. It is a closed enumeration: every
// layer this module knows about has exactly one Kind, and the next-protocol
// registry is keyed in part by it.
type Kind int

const (
	KindRaw Kind = iota
	KindEthernet
	KindIPv4
	KindIPv6
	KindUDP
	KindTCP
	KindDNS
	KindBTH
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "Raw"
	case KindEthernet:
		return "Ethernet"
	case KindIPv4:
		return "IPv4"
	case KindIPv6:
		return "IPv6"
	case KindUDP:
		return "UDP"
	case KindTCP:
		return "TCP"
	case KindDNS:
		return "DNS"
	case KindBTH:
		return "BTH"
	default:
		return "Unknown"
	}
}

// PDU is the contract every protocol layer implements. It mirrors the
// abstract PDU trait: header/trailer/total size, a closed kind tag, deep
// clone, inner/parent links, a malformed flag, serialization into a
// caller-preallocated buffer, and response matching for request/response
// pairing.
type PDU interface {
	// HeaderSize is the number of bytes this layer contributes before its
	// inner PDU.
	HeaderSize() int
	// TrailerSize is the number of bytes this layer contributes after its
	// inner PDU. Zero for most layers; 4 for BTH's ICRC.
	TrailerSize() int
	// Size is HeaderSize() + inner.Size() + TrailerSize(), or just
	// HeaderSize()+TrailerSize() with no inner PDU.
	Size() int
	// Kind returns this layer's tag from the closed Kind enumeration.
	Kind() Kind
	// Clone returns a deep copy: a new header plus a recursively cloned
	// inner PDU. The clone's parent pointer is left nil; Attach re-derives
	// it when the clone is composed into a new chain.
	Clone() PDU
	// InnerPDU returns the owned next-layer PDU, or nil.
	InnerPDU() PDU
	// SetInnerPDU replaces the inner PDU, destroying the effect of any
	// previous one had by discarding the reference. Use pdu.Attach instead
	// of calling this directly so the new inner PDU's parent pointer stays
	// consistent.
	SetInnerPDU(PDU)
	// ParentPDU returns the non-owning back-reference to the PDU that owns
	// this one, or nil for the outermost PDU in a chain.
	ParentPDU() PDU
	// Malformed reports whether construction from bytes detected a
	// structural defect but produced a best-effort object anyway.
	Malformed() bool
	// Serialize writes exactly Size() bytes into buf[:Size()]. Implementers
	// write their own header, recurse into the inner PDU over the
	// remaining slice, and fill in any trailer.
	Serialize(buf []byte) error
	// MatchesResponse reports whether data, read as this same kind of PDU,
	// looks like a response to the request this PDU represents (port
	// swap, sequence/ack expectations, ...), delegating to the inner PDU
	// for anything past this layer's own header.
	MatchesResponse(data []byte) bool
}

// Base is embedded by every concrete layer to provide the inner/parent
// bookkeeping and the malformed flag, the same way flow.go's TCPFlow embeds
// flows.BaseFlow for the bookkeeping every flow needs. Concrete layers
// still implement HeaderSize, TrailerSize, Kind, Clone, Serialize, and
// MatchesResponse themselves; Base only implements the parts that are
// identical across every layer.
type Base struct {
	inner     PDU
	parent    PDU
	malformed bool
}

// InnerPDU returns the owned next-layer PDU, or nil.
func (b *Base) InnerPDU() PDU { return b.inner }

// SetInnerPDU replaces the inner PDU directly. Prefer Attach, which also
// keeps the new inner PDU's parent pointer correct.
func (b *Base) SetInnerPDU(p PDU) { b.inner = p }

// ParentPDU returns the non-owning back-reference to this PDU's parent.
func (b *Base) ParentPDU() PDU { return b.parent }

// setParentPDU is unexported: only Attach may change a PDU's parent, since
// the invariant "the parent pointer, if present, must point to a PDU whose
// inner pdu is exactly this object" has to be maintained by the composition
// operator, never by the layer itself.
func (b *Base) setParentPDU(p PDU) { b.parent = p }

// Malformed reports whether parsing this PDU from bytes detected a
// structural defect but produced a best-effort object anyway.
func (b *Base) Malformed() bool { return b.malformed }

// SetMalformed is called by constructors when they detect a defect they can
// recover from without aborting construction.
func (b *Base) SetMalformed(v bool) { b.malformed = v }

// parentSetter is satisfied by any PDU built on Base; it's how Attach
// reaches into a PDU's embedded Base without a type switch over every
// concrete layer.
type parentSetter interface {
	setParentPDU(PDU)
}

// Attach is the composition operator: it makes child the inner PDU of
// parent, replacing (and dropping the reference to) any previous inner PDU,
// and keeps child's parent pointer in sync. This is the only code path that
// should ever set a parent pointer, so calling SetInnerPDU directly is
// error-prone and should be reserved for parse loops that immediately
// Attach the result anyway.
func Attach(parent, child PDU) {
	parent.SetInnerPDU(child)
	if child == nil {
		return
	}
	if ps, ok := child.(parentSetter); ok {
		ps.setParentPDU(parent)
	}
}

// sizeOf computes HeaderSize()+inner.Size()+TrailerSize() for any PDU; every
// concrete layer's Size() method is exactly this one-liner, exported here
// once so layers don't each repeat the inner-may-be-nil check.
func sizeOf(p PDU) int {
	size := p.HeaderSize() + p.TrailerSize()
	if inner := p.InnerPDU(); inner != nil {
		size += inner.Size()
	}
	return size
}

// SizeOf is the exported form of sizeOf, used by layer packages outside of
// pdu itself to implement their own Size() method in one line:
// func (x *X) Size() int { return pdu.SizeOf(x) }
func SizeOf(p PDU) int { return sizeOf(p) }
