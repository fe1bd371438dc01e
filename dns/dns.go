// Package dns implements the DNS message PDU: RFC 1035's header, question
// section, and the three resource-record sections, including name
// compression on both the read and write paths.
package dns

import (
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

const headerSize = 12

// QueryType is a DNS RR type / QTYPE value.
type QueryType uint16

const (
	TypeA     QueryType = 1
	TypeNS    QueryType = 2
	TypeCNAME QueryType = 5
	TypeSOA   QueryType = 6
	TypePTR   QueryType = 12
	TypeMX    QueryType = 15
	TypeTXT   QueryType = 16
	TypeAAAA  QueryType = 28
)

// QueryClass is a DNS RR class / QCLASS value.
type QueryClass uint16

const (
	ClassIN  QueryClass = 1
	ClassCS  QueryClass = 2
	ClassCH  QueryClass = 3
	ClassHS  QueryClass = 4
	ClassANY QueryClass = 255
)

// containsDomainName reports whether a resource record of the given type
// carries a domain name as (all or part of) its RDATA. RDATA is always
// stored raw, pointer bytes included, so DomainName is the only place
// that decompresses it.
func containsDomainName(t QueryType) bool {
	switch t {
	case TypeMX, TypeCNAME, TypePTR, TypeNS:
		return true
	default:
		return false
	}
}

// Query is one question-section entry.
type Query struct {
	Name  string
	Type  QueryType
	Class QueryClass
}

func (q Query) wireSize() int { return len(encodeName(q.Name)) + 4 }

// ResourceRecord is one answer/authority/additional-section entry. Name is
// always the fully decompressed dotted owner name; ownerPointer, when
// non-nil, records that this record's owner name was written as a
// compression pointer to an identical name that appeared earlier in the
// message, found at add time exactly like the original implementation's
// find_domain_name (first an exact match against the question names, then
// against each resource-record list in wire order).
type ResourceRecord struct {
	Name  string
	Type  QueryType
	Class QueryClass
	TTL   uint32
	RData []byte

	ownerPointer *uint16

	// message and rdataOffset are set only for records produced by Parse:
	// they let DomainName resolve a compression pointer living inside RData,
	// which is an offset into the whole message, not into RData itself.
	message     []byte
	rdataOffset int
}

func (r ResourceRecord) ownerSize() int {
	if r.ownerPointer != nil {
		return 2
	}
	return len(encodeName(r.Name))
}

func (r ResourceRecord) wireSize() int {
	return r.ownerSize() + 2 + 2 + 4 + 2 + len(r.RData)
}

// DNS is a full DNS message: header, questions, and the three resource
// record sections.
type DNS struct {
	pdu.Base

	id uint16

	qr     uint8
	opcode uint8
	aa     uint8
	tc     uint8
	rd     uint8
	ra     uint8
	z      uint8
	ad     uint8
	cd     uint8
	rcode  uint8

	queries     []Query
	answers     []ResourceRecord
	authorities []ResourceRecord
	additionals []ResourceRecord
}

// New returns an empty DNS message with all counts zero.
func New() *DNS { return &DNS{} }

// ExtractMetadata is the static probe: DNS's header size depends on its
// full content (questions and records), so the probe can only report
// the fixed 12-byte header and defer the rest to a full parse.
func ExtractMetadata(data []byte) (pdu.Metadata, error) {
	if len(data) < headerSize {
		return pdu.Metadata{}, fmt.Errorf("%w: DNS needs %d bytes, have %d", pdu.ErrMalformedPacket, headerSize, len(data))
	}
	return pdu.Metadata{HeaderSize: headerSize, Kind: pdu.KindDNS, NextKind: pdu.KindRaw}, nil
}

// Parse builds a DNS message from data.
func Parse(data []byte) (pdu.PDU, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: DNS needs %d bytes, have %d", pdu.ErrMalformedPacket, headerSize, len(data))
	}
	d := &DNS{}
	r := pdu.NewReader(data)

	id, _ := r.Uint16()
	flags, _ := r.Uint16()
	qdcount, _ := r.Uint16()
	ancount, _ := r.Uint16()
	nscount, _ := r.Uint16()
	arcount, _ := r.Uint16()

	d.id = id
	d.unpackFlags(flags)

	for i := 0; i < int(qdcount); i++ {
		name, next, err := decodeName(data, r.Offset())
		if err != nil {
			d.SetMalformed(true)
			return d, nil
		}
		if next+4 > len(data) {
			d.SetMalformed(true)
			return d, nil
		}
		qtype := QueryType(uint16(data[next])<<8 | uint16(data[next+1]))
		qclass := QueryClass(uint16(data[next+2])<<8 | uint16(data[next+3]))
		d.queries = append(d.queries, Query{Name: name, Type: qtype, Class: qclass})
		if err := r.Skip(next + 4 - r.Offset()); err != nil {
			d.SetMalformed(true)
			return d, nil
		}
	}

	var err error
	d.answers, err = parseResourceList(data, r, int(ancount))
	if err != nil {
		d.SetMalformed(true)
		return d, nil
	}
	d.authorities, err = parseResourceList(data, r, int(nscount))
	if err != nil {
		d.SetMalformed(true)
		return d, nil
	}
	d.additionals, err = parseResourceList(data, r, int(arcount))
	if err != nil {
		d.SetMalformed(true)
		return d, nil
	}

	if r.Remaining() > 0 {
		pdu.Attach(d, pdu.NewRaw(r.Rest()))
	}

	return d, nil
}

func parseResourceList(data []byte, r *pdu.Reader, n int) ([]ResourceRecord, error) {
	records := make([]ResourceRecord, 0, n)
	for i := 0; i < n; i++ {
		nameOffset := r.Offset()
		name, next, err := decodeName(data, nameOffset)
		if err != nil {
			return nil, err
		}
		var ownerPointer *uint16
		if nameOffset+1 < len(data) && data[nameOffset]&0xC0 == 0xC0 {
			target := uint16(data[nameOffset]&0x3F)<<8 | uint16(data[nameOffset+1])
			ownerPointer = &target
		}
		if next+10 > len(data) {
			return nil, fmt.Errorf("%w: truncated resource record", pdu.ErrMalformedPacket)
		}
		rtype := QueryType(uint16(data[next])<<8 | uint16(data[next+1]))
		rclass := QueryClass(uint16(data[next+2])<<8 | uint16(data[next+3]))
		ttl := uint32(data[next+4])<<24 | uint32(data[next+5])<<16 | uint32(data[next+6])<<8 | uint32(data[next+7])
		rdlength := int(uint16(data[next+8])<<8 | uint16(data[next+9]))
		rdataStart := next + 10
		if rdataStart+rdlength > len(data) {
			return nil, fmt.Errorf("%w: truncated resource data", pdu.ErrMalformedPacket)
		}

		rdata := data[rdataStart : rdataStart+rdlength]

		records = append(records, ResourceRecord{
			Name:         name,
			Type:         rtype,
			Class:        rclass,
			TTL:          ttl,
			RData:        append([]byte(nil), rdata...),
			ownerPointer: ownerPointer,
			message:      data,
			rdataOffset:  rdataStart,
		})
		if err := r.Skip(rdataStart + rdlength - r.Offset()); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (d *DNS) packFlags() uint16 {
	var f uint16
	f |= uint16(d.qr&0x1) << 15
	f |= uint16(d.opcode&0xF) << 11
	f |= uint16(d.aa&0x1) << 10
	f |= uint16(d.tc&0x1) << 9
	f |= uint16(d.rd&0x1) << 8
	f |= uint16(d.ra&0x1) << 7
	f |= uint16(d.z&0x1) << 6
	f |= uint16(d.ad&0x1) << 5
	f |= uint16(d.cd&0x1) << 4
	f |= uint16(d.rcode & 0xF)
	return f
}

func (d *DNS) unpackFlags(f uint16) {
	d.qr = uint8((f >> 15) & 0x1)
	d.opcode = uint8((f >> 11) & 0xF)
	d.aa = uint8((f >> 10) & 0x1)
	d.tc = uint8((f >> 9) & 0x1)
	d.rd = uint8((f >> 8) & 0x1)
	d.ra = uint8((f >> 7) & 0x1)
	d.z = uint8((f >> 6) & 0x1)
	d.ad = uint8((f >> 5) & 0x1)
	d.cd = uint8((f >> 4) & 0x1)
	d.rcode = uint8(f & 0xF)
}

func (d *DNS) HeaderSize() int {
	size := headerSize
	for _, q := range d.queries {
		size += q.wireSize()
	}
	for _, r := range d.answers {
		size += r.wireSize()
	}
	for _, r := range d.authorities {
		size += r.wireSize()
	}
	for _, r := range d.additionals {
		size += r.wireSize()
	}
	return size
}

func (d *DNS) TrailerSize() int { return 0 }
func (d *DNS) Size() int       { return pdu.SizeOf(d) }
func (d *DNS) Kind() pdu.Kind  { return pdu.KindDNS }

func (d *DNS) Clone() pdu.PDU {
	clone := *d
	clone.queries = append([]Query(nil), d.queries...)
	clone.answers = cloneRecords(d.answers)
	clone.authorities = cloneRecords(d.authorities)
	clone.additionals = cloneRecords(d.additionals)
	clone.SetInnerPDU(nil)
	if inner := d.InnerPDU(); inner != nil {
		pdu.Attach(&clone, inner.Clone())
	}
	return &clone
}

func cloneRecords(recs []ResourceRecord) []ResourceRecord {
	out := make([]ResourceRecord, len(recs))
	for i, r := range recs {
		out[i] = r
		out[i].RData = append([]byte(nil), r.RData...)
		if r.ownerPointer != nil {
			p := *r.ownerPointer
			out[i].ownerPointer = &p
		}
	}
	return out
}

func (d *DNS) ID() uint16     { return d.id }
func (d *DNS) SetID(v uint16) { d.id = v }

// MessageType distinguishes a query from a response.
type MessageType uint8

const (
	QueryMessage    MessageType = 0
	ResponseMessage MessageType = 1
)

func (d *DNS) Type() MessageType     { return MessageType(d.qr) }
func (d *DNS) SetType(v MessageType) { d.qr = uint8(v) }

func (d *DNS) Opcode() uint8     { return d.opcode }
func (d *DNS) SetOpcode(v uint8) { d.opcode = v & 0xF }

func (d *DNS) AuthoritativeAnswer() bool     { return d.aa != 0 }
func (d *DNS) SetAuthoritativeAnswer(v bool) { d.aa = boolToBit(v) }

func (d *DNS) Truncated() bool     { return d.tc != 0 }
func (d *DNS) SetTruncated(v bool) { d.tc = boolToBit(v) }

func (d *DNS) RecursionDesired() bool     { return d.rd != 0 }
func (d *DNS) SetRecursionDesired(v bool) { d.rd = boolToBit(v) }

func (d *DNS) RecursionAvailable() bool     { return d.ra != 0 }
func (d *DNS) SetRecursionAvailable(v bool) { d.ra = boolToBit(v) }

func (d *DNS) Z() bool     { return d.z != 0 }
func (d *DNS) SetZ(v bool) { d.z = boolToBit(v) }

func (d *DNS) AuthenticatedData() bool     { return d.ad != 0 }
func (d *DNS) SetAuthenticatedData(v bool) { d.ad = boolToBit(v) }

func (d *DNS) CheckingDisabled() bool     { return d.cd != 0 }
func (d *DNS) SetCheckingDisabled(v bool) { d.cd = boolToBit(v) }

func (d *DNS) RCode() uint8     { return d.rcode }
func (d *DNS) SetRCode(v uint8) { d.rcode = v & 0xF }

func boolToBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (d *DNS) Queries() []Query            { return d.queries }
func (d *DNS) Answers() []ResourceRecord   { return d.answers }
func (d *DNS) Authorities() []ResourceRecord { return d.authorities }
func (d *DNS) Additionals() []ResourceRecord { return d.additionals }

// AddQuery appends a question-section entry. Query names are never
// compressed, matching add_query in the original.
func (d *DNS) AddQuery(name string, t QueryType, c QueryClass) {
	d.queries = append(d.queries, Query{Name: name, Type: t, Class: c})
}

// findNameOffset looks for name among every name already present in the
// message (queries first, then answers, authority, additional, in that
// order — the earliest occurrence wins) and returns the absolute byte
// offset at which it was first written, for use as a compression pointer
// target.
func (d *DNS) findNameOffset(name string) (uint16, bool) {
	offset := headerSize
	for _, q := range d.queries {
		if q.Name == name {
			return uint16(offset), true
		}
		offset += q.wireSize()
	}
	for _, list := range [][]ResourceRecord{d.answers, d.authorities, d.additionals} {
		for _, r := range list {
			if r.Name == name {
				return uint16(offset), true
			}
			offset += r.wireSize()
		}
	}
	return 0, false
}

func (d *DNS) makeRecord(name string, t QueryType, c QueryClass, ttl uint32, rdata []byte) ResourceRecord {
	rec := ResourceRecord{Name: name, Type: t, Class: c, TTL: ttl, RData: rdata}
	if offset, ok := d.findNameOffset(name); ok {
		p := offset
		rec.ownerPointer = &p
	}
	return rec
}

// AddAnswer appends an answer-section A record.
func (d *DNS) AddAnswer(name string, t QueryType, c QueryClass, ttl uint32, addr [4]byte) {
	d.answers = append(d.answers, d.makeRecord(name, t, c, ttl, append([]byte(nil), addr[:]...)))
}

// AddAnswerName appends an answer-section record whose RDATA is itself a
// domain name (CNAME, NS, or PTR).
func (d *DNS) AddAnswerName(name string, t QueryType, c QueryClass, ttl uint32, target string) {
	d.answers = append(d.answers, d.makeRecord(name, t, c, ttl, encodeName(target)))
}

// AddAnswerMX appends an answer-section MX record: a 2-byte preference
// followed by the exchange domain name.
func (d *DNS) AddAnswerMX(name string, c QueryClass, ttl uint32, preference uint16, exchange string) {
	rdata := make([]byte, 0, 2+len(exchange)+2)
	rdata = append(rdata, byte(preference>>8), byte(preference))
	rdata = append(rdata, encodeName(exchange)...)
	d.answers = append(d.answers, d.makeRecord(name, TypeMX, c, ttl, rdata))
}

// AddAuthority appends an authority-section record with raw RDATA.
func (d *DNS) AddAuthority(name string, t QueryType, c QueryClass, ttl uint32, rdata []byte) {
	d.authorities = append(d.authorities, d.makeRecord(name, t, c, ttl, rdata))
}

// AddAdditional appends an additional-section A record.
func (d *DNS) AddAdditional(name string, t QueryType, c QueryClass, ttl uint32, addr [4]byte) {
	d.additionals = append(d.additionals, d.makeRecord(name, t, c, ttl, append([]byte(nil), addr[:]...)))
}

// Serialize writes the header, the question section, and the three
// resource-record sections, in that order, using each record's
// compression decision as recorded at add time.
func (d *DNS) Serialize(buf []byte) error {
	w := pdu.NewWriter(buf)

	w.PutUint16(d.id)
	w.PutUint16(d.packFlags())
	w.PutUint16(uint16(len(d.queries)))
	w.PutUint16(uint16(len(d.answers)))
	w.PutUint16(uint16(len(d.authorities)))
	w.PutUint16(uint16(len(d.additionals)))

	for _, q := range d.queries {
		w.PutBytes(encodeName(q.Name))
		w.PutUint16(uint16(q.Type))
		w.PutUint16(uint16(q.Class))
	}
	for _, list := range [][]ResourceRecord{d.answers, d.authorities, d.additionals} {
		for _, r := range list {
			writeResourceRecord(w, r)
		}
	}

	if inner := d.InnerPDU(); inner != nil {
		innerOff := w.Offset()
		innerSize := inner.Size()
		w.Skip(innerSize)
		if err := inner.Serialize(buf[innerOff : innerOff+innerSize]); err != nil {
			return err
		}
	}
	return nil
}

func writeResourceRecord(w *pdu.Writer, r ResourceRecord) {
	if r.ownerPointer != nil {
		p := pointerBytes(*r.ownerPointer)
		w.PutBytes(p[:])
	} else {
		w.PutBytes(encodeName(r.Name))
	}
	w.PutUint16(uint16(r.Type))
	w.PutUint16(uint16(r.Class))
	w.PutUint32(r.TTL)
	w.PutUint16(uint16(len(r.RData)))
	w.PutBytes(r.RData)
}

// MatchesResponse reports whether data, read as a DNS message, is a
// response to this one: same transaction ID, QR bit set.
func (d *DNS) MatchesResponse(data []byte) bool {
	if len(data) < headerSize {
		return false
	}
	otherID := uint16(data[0])<<8 | uint16(data[1])
	otherQR := (data[2] >> 7) & 0x1
	return otherID == d.id && otherQR == 1
}
