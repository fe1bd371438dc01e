package bth

import (
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

const (
	baseHeaderSize = 12
	trailerSize    = 4

	rdethSize  = 4
	dethSize   = 8
	rethSize   = 16
	atethSize  = 28
	aethSize   = 4
	ataethSize = 8
	immdtSize  = 4
	iethSize   = 4
	xrcethSize = 4
)

// BTH is an Infiniband Base Transport Header PDU, the RoCEv2 transport
// layer. Which of the nine optional extension headers are present is a
// pure function of the opcode (opcodes.go); the set is cached as boolean
// flags that are re-derived every time the opcode changes.
type BTH struct {
	pdu.Base

	opcode Opcode
	se     uint8
	m      uint8
	padcnt uint8
	tver   uint8
	pkey   uint16
	f      uint8
	b      uint8
	destqp pdu.Uint24
	a      uint8
	psn    pdu.Uint24

	hasRDETH  bool
	hasDETH   bool
	hasRETH   bool
	hasATETH  bool
	hasAETH   bool
	hasATAETH bool
	hasIMMDT  bool
	hasIETH   bool
	hasXRCETH bool
	hasPayload bool

	rdeth  rdethFields
	deth   dethFields
	reth   rethFields
	ateth  atethFields
	aeth   aethFields
	ataeth ataethFields
	immdt  immdtFields
	ieth   iethFields
	xrceth xrcethFields

	icrc uint32
}

type rdethFields struct{ ee pdu.Uint24 }
type dethFields struct {
	qkey  uint32
	srcqp pdu.Uint24
}
type rethFields struct {
	va     uint64
	rkey   uint32
	dmalen uint32
}
type atethFields struct {
	va     uint64
	rkey   uint32
	swapdt uint64
	cmpdt  uint64
}
type aethFields struct {
	syndrome uint8
	msn      pdu.Uint24
}
type ataethFields struct{ origremdt uint64 }
type immdtFields struct{ immdt uint32 }
type iethFields struct{ rkey uint32 }
type xrcethFields struct{ xrcsrq pdu.Uint24 }

// New constructs a BTH with the given opcode and its extension presence
// flags derived from that opcode. New(RCSendOnly) gives the original's
// default header: no extension headers.
func New(opcode Opcode) *BTH {
	b := &BTH{}
	b.SetOpcode(opcode)
	return b
}

// ExtractMetadata is the static quick probe: it reports this layer's
// declared header size (base header plus whatever extensions the opcode
// implies) without building the full object.
func ExtractMetadata(data []byte) (pdu.Metadata, error) {
	if len(data) < baseHeaderSize {
		return pdu.Metadata{}, fmt.Errorf("%w: BTH needs %d bytes, have %d", pdu.ErrMalformedPacket, baseHeaderSize, len(data))
	}
	opcode := Opcode(data[0])
	hsz := headerSizeForOpcode(opcode)
	if len(data) < hsz {
		return pdu.Metadata{}, fmt.Errorf("%w: BTH opcode %#x needs %d bytes, have %d", pdu.ErrMalformedPacket, opcode, hsz, len(data))
	}
	return pdu.Metadata{HeaderSize: hsz, Kind: pdu.KindBTH, NextKind: pdu.KindRaw}, nil
}

func headerSizeForOpcode(op Opcode) int {
	mask := contentsFor(op)
	size := baseHeaderSize
	if mask&extRDETH != 0 {
		size += rdethSize
	}
	if mask&extDETH != 0 {
		size += dethSize
	}
	if mask&extRETH != 0 {
		size += rethSize
	}
	if mask&extATETH != 0 {
		size += atethSize
	}
	if mask&extAETH != 0 {
		size += aethSize
	}
	if mask&extATAETH != 0 {
		size += ataethSize
	}
	if mask&extIMMDT != 0 {
		size += immdtSize
	}
	if mask&extIETH != 0 {
		size += iethSize
	}
	if mask&extXRCETH != 0 {
		size += xrcethSize
	}
	return size
}

// Parse builds a BTH from data. It is registered as the pdu.Constructor for
// UDP destination port 4791.
func Parse(data []byte) (pdu.PDU, error) {
	b := &BTH{}
	r := pdu.NewReader(data)

	opcodeByte, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	b.opcode = Opcode(opcodeByte)
	packed, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	b.se = (packed >> 7) & 0x1
	b.m = (packed >> 6) & 0x1
	b.padcnt = (packed >> 4) & 0x3
	b.tver = packed & 0xF
	b.pkey, err = r.Uint16()
	if err != nil {
		return nil, err
	}
	fb, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	b.f = (fb >> 7) & 0x1
	b.b = (fb >> 6) & 0x1
	b.destqp, err = r.Uint24()
	if err != nil {
		return nil, err
	}
	ab, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	b.a = (ab >> 7) & 0x1
	b.psn, err = r.Uint24()
	if err != nil {
		return nil, err
	}

	b.deriveContents()

	total := len(data)
	if total < b.HeaderSize()+b.TrailerSize() {
		b.SetMalformed(true)
		return b, nil
	}

	return parseExtensions(b, data)
}

// parseExtensions skips the base header and reads all present extensions in
// the fixed linearization order (RDETH, DETH, XRCETH, RETH, AETH, ATETH,
// ATAETH, IMMDT, IETH), matching ib_bth.cpp's BTH(buffer, total_sz)
// constructor exactly, including which reserved bytes precede each 3-byte
// field.
func parseExtensions(b *BTH, data []byte) (pdu.PDU, error) {
	r := pdu.NewReader(data)
	if err := r.Skip(baseHeaderSize); err != nil {
		return nil, err
	}

	readReserved24 := func() (pdu.Uint24, error) {
		if _, err := r.Uint8(); err != nil {
			return pdu.Uint24{}, err
		}
		return r.Uint24()
	}

	if b.hasRDETH {
		ee, err := readReserved24()
		if err != nil {
			return nil, err
		}
		b.rdeth.ee = ee
	}
	if b.hasDETH {
		qkey, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		srcqp, err := readReserved24()
		if err != nil {
			return nil, err
		}
		b.deth.qkey = qkey
		b.deth.srcqp = srcqp
	}
	if b.hasXRCETH {
		xrcsrq, err := readReserved24()
		if err != nil {
			return nil, err
		}
		b.xrceth.xrcsrq = xrcsrq
	}
	if b.hasRETH {
		va, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		va2, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		rkey, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		dmalen, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b.reth.va = uint64(va)<<32 | uint64(va2)
		b.reth.rkey = rkey
		b.reth.dmalen = dmalen
	}
	if b.hasAETH {
		syndrome, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		msn, err := r.Uint24()
		if err != nil {
			return nil, err
		}
		b.aeth.syndrome = syndrome
		b.aeth.msn = msn
	}
	if b.hasATETH {
		va1, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		va2, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		rkey, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		swapdt1, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		swapdt2, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		cmpdt1, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		cmpdt2, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b.ateth.va = uint64(va1)<<32 | uint64(va2)
		b.ateth.rkey = rkey
		b.ateth.swapdt = uint64(swapdt1)<<32 | uint64(swapdt2)
		b.ateth.cmpdt = uint64(cmpdt1)<<32 | uint64(cmpdt2)
	}
	if b.hasATAETH {
		o1, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		o2, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b.ataeth.origremdt = uint64(o1)<<32 | uint64(o2)
	}
	if b.hasIMMDT {
		immdt, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b.immdt.immdt = immdt
	}
	if b.hasIETH {
		rkey, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b.ieth.rkey = rkey
	}

	payloadSize := r.Remaining() - trailerSize
	if payloadSize < 0 || payloadSize%4 != 0 {
		b.SetMalformed(true)
		return b, nil
	}

	if b.hasPayload && payloadSize > 0 {
		payloadBytes, err := r.Bytes(payloadSize)
		if err != nil {
			return nil, err
		}
		trim := payloadSize - int(b.padcnt)
		if trim < 0 {
			trim = 0
		}
		pdu.Attach(b, pdu.NewRaw(payloadBytes[:trim]))
	} else if payloadSize > 0 {
		// PAYLOAD unset but bytes remain before the trailer: the opcode
		// doesn't carry a payload, so this is malformed per the fail-soft
		// contract rather than bytes to silently discard. Unlike ib_bth.cpp,
		// which returns immediately on this check, parsing continues on to
		// read the ICRC below; extension fields read above are unaffected
		// either way since they sit before payloadSize is computed.
		b.SetMalformed(true)
		if err := r.Skip(payloadSize); err != nil {
			return nil, err
		}
	}

	icrc, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	b.icrc = icrc

	return b, nil
}

func (b *BTH) deriveContents() {
	mask := contentsFor(b.opcode)
	b.hasRDETH = mask&extRDETH != 0
	b.hasDETH = mask&extDETH != 0
	b.hasRETH = mask&extRETH != 0
	b.hasATETH = mask&extATETH != 0
	b.hasAETH = mask&extAETH != 0
	b.hasATAETH = mask&extATAETH != 0
	b.hasIMMDT = mask&extIMMDT != 0
	b.hasIETH = mask&extIETH != 0
	b.hasXRCETH = mask&extXRCETH != 0
	b.hasPayload = mask&extPAYLOAD != 0
}

// HeaderSize is the base header plus every present extension header.
func (b *BTH) HeaderSize() int {
	size := baseHeaderSize
	if b.hasRDETH {
		size += rdethSize
	}
	if b.hasDETH {
		size += dethSize
	}
	if b.hasRETH {
		size += rethSize
	}
	if b.hasATETH {
		size += atethSize
	}
	if b.hasAETH {
		size += aethSize
	}
	if b.hasATAETH {
		size += ataethSize
	}
	if b.hasIMMDT {
		size += immdtSize
	}
	if b.hasIETH {
		size += iethSize
	}
	if b.hasXRCETH {
		size += xrcethSize
	}
	return size
}

// TrailerSize is always 4: the ICRC. Pad bytes are not folded into the
// trailer (spec.md §9 Open Question, resolved: pad stays part of the
// payload region, trimmed out of the inner Raw PDU on parse).
func (b *BTH) TrailerSize() int { return trailerSize }

func (b *BTH) Size() int  { return pdu.SizeOf(b) }
func (b *BTH) Kind() pdu.Kind { return pdu.KindBTH }

func (b *BTH) Clone() pdu.PDU {
	clone := *b
	clone.SetInnerPDU(nil)
	if inner := b.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

// Opcode returns the current opcode.
func (b *BTH) Opcode() Opcode { return b.opcode }

// SetOpcode sets the opcode and re-derives the extension presence flags
// from the opcode table, matching BTH::opcode(Opcodes)'s call to
// update_packet_contents.
func (b *BTH) SetOpcode(op Opcode) {
	b.opcode = op
	b.deriveContents()
}

func (b *BTH) SE() uint8 { return b.se }
func (b *BTH) SetSE(v uint8) error {
	if err := pdu.CheckBits(v, 1); err != nil {
		return err
	}
	b.se = v
	return nil
}

func (b *BTH) M() uint8 { return b.m }
func (b *BTH) SetM(v uint8) error {
	if err := pdu.CheckBits(v, 1); err != nil {
		return err
	}
	b.m = v
	return nil
}

// PadCnt returns the pad-byte count. Not derived automatically on
// serialize; see SetPadCnt.
func (b *BTH) PadCnt() uint8 { return b.padcnt }

// SetPadCnt sets how many of the trailing payload bytes are padding. This
// module follows the original implementation and leaves padcnt entirely
// caller-managed: serializing a BTH never derives it from the inner PDU's
// size, it only uses the value already stored here.
func (b *BTH) SetPadCnt(v uint8) error {
	if err := pdu.CheckBits(v, 2); err != nil {
		return err
	}
	b.padcnt = v
	return nil
}

func (b *BTH) TVer() uint8 { return b.tver }
func (b *BTH) SetTVer(v uint8) error {
	if err := pdu.CheckBits(v, 4); err != nil {
		return err
	}
	b.tver = v
	return nil
}

func (b *BTH) PKey() uint16     { return b.pkey }
func (b *BTH) SetPKey(v uint16) { b.pkey = v }

func (b *BTH) F() uint8 { return b.f }
func (b *BTH) SetF(v uint8) error {
	if err := pdu.CheckBits(v, 1); err != nil {
		return err
	}
	b.f = v
	return nil
}

func (b *BTH) B() uint8 { return b.b }
func (b *BTH) SetB(v uint8) error {
	if err := pdu.CheckBits(v, 1); err != nil {
		return err
	}
	b.b = v
	return nil
}

func (b *BTH) DestQP() pdu.Uint24     { return b.destqp }
func (b *BTH) SetDestQP(v pdu.Uint24) { b.destqp = v }

func (b *BTH) A() uint8 { return b.a }
func (b *BTH) SetA(v uint8) error {
	if err := pdu.CheckBits(v, 1); err != nil {
		return err
	}
	b.a = v
	return nil
}

func (b *BTH) PSN() pdu.Uint24     { return b.psn }
func (b *BTH) SetPSN(v pdu.Uint24) { b.psn = v }

func (b *BTH) ICRC() uint32     { return b.icrc }
func (b *BTH) SetICRC(v uint32) { b.icrc = v }

// EE returns RDETH's End-to-End Context.
func (b *BTH) EE() (pdu.Uint24, error) {
	if !b.hasRDETH {
		return pdu.Uint24{}, fmt.Errorf("%w: RDETH", pdu.ErrFieldNotPresent)
	}
	return b.rdeth.ee, nil
}

func (b *BTH) SetEE(v pdu.Uint24) error {
	if !b.hasRDETH {
		return fmt.Errorf("%w: RDETH", pdu.ErrFieldNotPresent)
	}
	b.rdeth.ee = v
	return nil
}

// QKey returns DETH's Q_Key.
func (b *BTH) QKey() (uint32, error) {
	if !b.hasDETH {
		return 0, fmt.Errorf("%w: DETH", pdu.ErrFieldNotPresent)
	}
	return b.deth.qkey, nil
}

func (b *BTH) SetQKey(v uint32) error {
	if !b.hasDETH {
		return fmt.Errorf("%w: DETH", pdu.ErrFieldNotPresent)
	}
	b.deth.qkey = v
	return nil
}

// SrcQP returns DETH's Source Queue Pair.
func (b *BTH) SrcQP() (pdu.Uint24, error) {
	if !b.hasDETH {
		return pdu.Uint24{}, fmt.Errorf("%w: DETH", pdu.ErrFieldNotPresent)
	}
	return b.deth.srcqp, nil
}

func (b *BTH) SetSrcQP(v pdu.Uint24) error {
	if !b.hasDETH {
		return fmt.Errorf("%w: DETH", pdu.ErrFieldNotPresent)
	}
	b.deth.srcqp = v
	return nil
}

// VA returns the Virtual Address shared by RETH and ATETH, whichever is
// present; they're mutually exclusive per the opcode table.
func (b *BTH) VA() (uint64, error) {
	switch {
	case b.hasRETH:
		return b.reth.va, nil
	case b.hasATETH:
		return b.ateth.va, nil
	default:
		return 0, fmt.Errorf("%w: RETH/ATETH", pdu.ErrFieldNotPresent)
	}
}

func (b *BTH) SetVA(v uint64) error {
	switch {
	case b.hasRETH:
		b.reth.va = v
	case b.hasATETH:
		b.ateth.va = v
	default:
		return fmt.Errorf("%w: RETH/ATETH", pdu.ErrFieldNotPresent)
	}
	return nil
}

// RKey returns the R_Key shared by RETH, ATETH, and IETH.
func (b *BTH) RKey() (uint32, error) {
	switch {
	case b.hasRETH:
		return b.reth.rkey, nil
	case b.hasATETH:
		return b.ateth.rkey, nil
	case b.hasIETH:
		return b.ieth.rkey, nil
	default:
		return 0, fmt.Errorf("%w: RETH/ATETH/IETH", pdu.ErrFieldNotPresent)
	}
}

func (b *BTH) SetRKey(v uint32) error {
	switch {
	case b.hasRETH:
		b.reth.rkey = v
	case b.hasATETH:
		b.ateth.rkey = v
	case b.hasIETH:
		b.ieth.rkey = v
	default:
		return fmt.Errorf("%w: RETH/ATETH/IETH", pdu.ErrFieldNotPresent)
	}
	return nil
}

// DMALen returns RETH's DMA length.
func (b *BTH) DMALen() (uint32, error) {
	if !b.hasRETH {
		return 0, fmt.Errorf("%w: RETH", pdu.ErrFieldNotPresent)
	}
	return b.reth.dmalen, nil
}

func (b *BTH) SetDMALen(v uint32) error {
	if !b.hasRETH {
		return fmt.Errorf("%w: RETH", pdu.ErrFieldNotPresent)
	}
	b.reth.dmalen = v
	return nil
}

// SwapDt returns ATETH's Swap (or Add) Data.
func (b *BTH) SwapDt() (uint64, error) {
	if !b.hasATETH {
		return 0, fmt.Errorf("%w: ATETH", pdu.ErrFieldNotPresent)
	}
	return b.ateth.swapdt, nil
}

func (b *BTH) SetSwapDt(v uint64) error {
	if !b.hasATETH {
		return fmt.Errorf("%w: ATETH", pdu.ErrFieldNotPresent)
	}
	b.ateth.swapdt = v
	return nil
}

// CmpDt returns ATETH's Compare Data.
func (b *BTH) CmpDt() (uint64, error) {
	if !b.hasATETH {
		return 0, fmt.Errorf("%w: ATETH", pdu.ErrFieldNotPresent)
	}
	return b.ateth.cmpdt, nil
}

func (b *BTH) SetCmpDt(v uint64) error {
	if !b.hasATETH {
		return fmt.Errorf("%w: ATETH", pdu.ErrFieldNotPresent)
	}
	b.ateth.cmpdt = v
	return nil
}

// HasAETH reports whether the current opcode carries an AETH.
func (b *BTH) HasAETH() bool { return b.hasAETH }

// Syndrome returns AETH's syndrome byte.
func (b *BTH) Syndrome() (uint8, error) {
	if !b.hasAETH {
		return 0, fmt.Errorf("%w: AETH", pdu.ErrFieldNotPresent)
	}
	return b.aeth.syndrome, nil
}

func (b *BTH) SetSyndrome(v uint8) error {
	if !b.hasAETH {
		return fmt.Errorf("%w: AETH", pdu.ErrFieldNotPresent)
	}
	b.aeth.syndrome = v
	return nil
}

// MSN returns AETH's Message Sequence Number.
func (b *BTH) MSN() (pdu.Uint24, error) {
	if !b.hasAETH {
		return pdu.Uint24{}, fmt.Errorf("%w: AETH", pdu.ErrFieldNotPresent)
	}
	return b.aeth.msn, nil
}

func (b *BTH) SetMSN(v pdu.Uint24) error {
	if !b.hasAETH {
		return fmt.Errorf("%w: AETH", pdu.ErrFieldNotPresent)
	}
	b.aeth.msn = v
	return nil
}

// OrigRemDt returns ATAETH's Original Remote Data.
func (b *BTH) OrigRemDt() (uint64, error) {
	if !b.hasATAETH {
		return 0, fmt.Errorf("%w: ATAETH", pdu.ErrFieldNotPresent)
	}
	return b.ataeth.origremdt, nil
}

func (b *BTH) SetOrigRemDt(v uint64) error {
	if !b.hasATAETH {
		return fmt.Errorf("%w: ATAETH", pdu.ErrFieldNotPresent)
	}
	b.ataeth.origremdt = v
	return nil
}

// ImmDt returns IMMDT's Immediate Data.
func (b *BTH) ImmDt() (uint32, error) {
	if !b.hasIMMDT {
		return 0, fmt.Errorf("%w: IMMDT", pdu.ErrFieldNotPresent)
	}
	return b.immdt.immdt, nil
}

func (b *BTH) SetImmDt(v uint32) error {
	if !b.hasIMMDT {
		return fmt.Errorf("%w: IMMDT", pdu.ErrFieldNotPresent)
	}
	b.immdt.immdt = v
	return nil
}

// XRCSRQ returns XRCETH's XRC Shared Receive Queue.
func (b *BTH) XRCSRQ() (pdu.Uint24, error) {
	if !b.hasXRCETH {
		return pdu.Uint24{}, fmt.Errorf("%w: XRCETH", pdu.ErrFieldNotPresent)
	}
	return b.xrceth.xrcsrq, nil
}

func (b *BTH) SetXRCSRQ(v pdu.Uint24) error {
	if !b.hasXRCETH {
		return fmt.Errorf("%w: XRCETH", pdu.ErrFieldNotPresent)
	}
	b.xrceth.xrcsrq = v
	return nil
}

// Serialize writes the base header, every present extension in the fixed
// linearization order, skips over the inner PDU's bytes (the inner PDU
// writes those itself), and writes the ICRC trailer.
func (b *BTH) Serialize(buf []byte) error {
	w := pdu.NewWriter(buf)

	w.PutUint8(uint8(b.opcode))
	w.PutUint8((b.se&0x1)<<7 | (b.m&0x1)<<6 | (b.padcnt&0x3)<<4 | (b.tver & 0xF))
	w.PutUint16(b.pkey)
	w.PutUint8((b.f&0x1)<<7 | (b.b&0x1)<<6)
	w.PutUint24(b.destqp)
	w.PutUint8((b.a & 0x1) << 7)
	w.PutUint24(b.psn)

	if b.hasRDETH {
		w.PutUint8(0)
		w.PutUint24(b.rdeth.ee)
	}
	if b.hasDETH {
		w.PutUint32(b.deth.qkey)
		w.PutUint8(0)
		w.PutUint24(b.deth.srcqp)
	}
	if b.hasXRCETH {
		w.PutUint8(0)
		w.PutUint24(b.xrceth.xrcsrq)
	}
	if b.hasRETH {
		w.PutUint32(uint32(b.reth.va >> 32))
		w.PutUint32(uint32(b.reth.va))
		w.PutUint32(b.reth.rkey)
		w.PutUint32(b.reth.dmalen)
	}
	if b.hasAETH {
		w.PutUint8(b.aeth.syndrome)
		w.PutUint24(b.aeth.msn)
	}
	if b.hasATETH {
		w.PutUint32(uint32(b.ateth.va >> 32))
		w.PutUint32(uint32(b.ateth.va))
		w.PutUint32(b.ateth.rkey)
		w.PutUint32(uint32(b.ateth.swapdt >> 32))
		w.PutUint32(uint32(b.ateth.swapdt))
		w.PutUint32(uint32(b.ateth.cmpdt >> 32))
		w.PutUint32(uint32(b.ateth.cmpdt))
	}
	if b.hasATAETH {
		w.PutUint32(uint32(b.ataeth.origremdt >> 32))
		w.PutUint32(uint32(b.ataeth.origremdt))
	}
	if b.hasIMMDT {
		w.PutUint32(b.immdt.immdt)
	}
	if b.hasIETH {
		w.PutUint32(b.ieth.rkey)
	}

	if inner := b.InnerPDU(); inner != nil {
		w.Skip(inner.Size())
		if err := inner.Serialize(buf[w.Offset()-inner.Size() : w.Offset()]); err != nil {
			return err
		}
	}

	w.PutUint32(b.icrc)
	return nil
}

// MatchesResponse for BTH is opcode-class agnostic at this layer; BTH has
// no notion of request/response pairing of its own (that lives above it,
// e.g. in the application protocol), so it simply delegates to the inner
// PDU over the remaining bytes, treating a header-only BTH as always
// matching.
func (b *BTH) MatchesResponse(data []byte) bool {
	hsz := b.HeaderSize()
	if len(data) < hsz {
		return false
	}
	if inner := b.InnerPDU(); inner != nil {
		rest := data[hsz:]
		if len(rest) < trailerSize {
			return false
		}
		return inner.MatchesResponse(rest[:len(rest)-trailerSize])
	}
	return true
}
