package dns

import (
	"fmt"

	"github.com/cerebras/gotins/pdu"
)

// DomainName decodes the embedded domain name carried by a CNAME, NS,
// PTR, or MX record's RDATA. It returns ErrFieldNotPresent for any other
// record type.
func (r ResourceRecord) DomainName() (string, error) {
	if !containsDomainName(r.Type) {
		return "", fmt.Errorf("%w: record type %d carries no domain name", pdu.ErrFieldNotPresent, r.Type)
	}
	prefix := 0
	if r.Type == TypeMX {
		prefix = 2
	}
	if r.message != nil {
		name, _, err := decodeName(r.message, r.rdataOffset+prefix)
		return name, err
	}
	name, _, err := decodeName(r.RData, prefix)
	return name, err
}

// MXPreference returns the preference field of an MX record's RDATA.
func (r ResourceRecord) MXPreference() (uint16, error) {
	if r.Type != TypeMX || len(r.RData) < 2 {
		return 0, fmt.Errorf("%w: not an MX record", pdu.ErrFieldNotPresent)
	}
	return uint16(r.RData[0])<<8 | uint16(r.RData[1]), nil
}

// Address returns a 4-byte A-record address.
func (r ResourceRecord) Address() ([4]byte, error) {
	var addr [4]byte
	if r.Type != TypeA || len(r.RData) != 4 {
		return addr, fmt.Errorf("%w: not an A record", pdu.ErrFieldNotPresent)
	}
	copy(addr[:], r.RData)
	return addr, nil
}
