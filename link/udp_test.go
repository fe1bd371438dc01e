package link

import (
	"testing"

	"github.com/google/gopacket/layers"

	"github.com/cerebras/gotins/bth"
	"github.com/cerebras/gotins/dns"
	"github.com/cerebras/gotins/pdu"
)

func TestParseUDPTooShortIsError(t *testing.T) {
	if _, err := ParseUDP(make([]byte, 2)); err == nil {
		t.Fatal("expected an error for a buffer shorter than the UDP header")
	}
}

func TestUDPChecksumUsesParentPseudoHeader(t *testing.T) {
	ip := NewIPv4([4]byte{172, 16, 0, 1}, [4]byte{172, 16, 0, 2}, layers.IPProtocolUDP)
	u := NewUDP(40000, 4791)
	pdu.Attach(ip, u)
	pdu.Attach(u, pdu.NewRaw([]byte{1, 2, 3, 4}))

	buf := make([]byte, ip.Size())
	if err := ip.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	if u.Checksum() == 0 {
		t.Fatal("expected a nonzero UDP checksum once a pseudo-header source is attached")
	}

	parsed, err := ParseIPv4(buf)
	if err != nil {
		t.Fatal(err)
	}
	reparsed := parsed.(*IPv4).InnerPDU().(*UDP)
	if reparsed.Checksum() != u.Checksum() {
		t.Fatalf("Checksum() = %#x, want %#x", reparsed.Checksum(), u.Checksum())
	}
}

func TestUDPDestPort4791DispatchesToBTH(t *testing.T) {
	ip := NewIPv4([4]byte{10, 1, 1, 1}, [4]byte{10, 1, 1, 2}, layers.IPProtocolUDP)
	u := NewUDP(5000, 4791)
	pdu.Attach(ip, u)
	pdu.Attach(u, bth.New(bth.RCSendFirst))

	buf := make([]byte, ip.Size())
	if err := ip.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseIPv4(buf)
	if err != nil {
		t.Fatal(err)
	}
	udpPDU := parsed.(*IPv4).InnerPDU().(*UDP)
	if _, ok := udpPDU.InnerPDU().(*bth.BTH); !ok {
		t.Fatalf("inner PDU type = %T, want *bth.BTH", udpPDU.InnerPDU())
	}
}

func TestUDPDestPort53DispatchesToDNS(t *testing.T) {
	ip := NewIPv4([4]byte{10, 1, 1, 1}, [4]byte{10, 1, 1, 2}, layers.IPProtocolUDP)
	u := NewUDP(6000, 53)
	d := dns.New()
	d.AddQuery("example.com", dns.TypeA, dns.ClassIN)
	pdu.Attach(ip, u)
	pdu.Attach(u, d)

	buf := make([]byte, ip.Size())
	if err := ip.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseIPv4(buf)
	if err != nil {
		t.Fatal(err)
	}
	udpPDU := parsed.(*IPv4).InnerPDU().(*UDP)
	inner, ok := udpPDU.InnerPDU().(*dns.DNS)
	if !ok {
		t.Fatalf("inner PDU type = %T, want *dns.DNS", udpPDU.InnerPDU())
	}
	if len(inner.Queries()) != 1 || inner.Queries()[0].Name != "example.com" {
		t.Fatalf("Queries() = %v", inner.Queries())
	}
}

func TestUDPMatchesResponseRequiresPortSwap(t *testing.T) {
	req := NewUDP(1111, 2222)
	pdu.Attach(req, pdu.NewRaw(nil))

	resp := NewUDP(2222, 1111)
	pdu.Attach(resp, pdu.NewRaw(nil))
	buf := make([]byte, resp.Size())
	if err := resp.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	if !req.MatchesResponse(buf) {
		t.Fatal("expected port-swapped response to match")
	}
}
