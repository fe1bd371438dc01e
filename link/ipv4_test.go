package link

import (
	"testing"

	"github.com/google/gopacket/layers"

	"github.com/cerebras/gotins/pdu"
)

func TestParseIPv4TooShortIsError(t *testing.T) {
	if _, err := ParseIPv4(make([]byte, 4)); err == nil {
		t.Fatal("expected an error for a buffer shorter than the IPv4 header")
	}
}

func TestIPv4SerializeThenParseRoundTrip(t *testing.T) {
	ip := NewIPv4([4]byte{192, 168, 1, 1}, [4]byte{192, 168, 1, 2}, layers.IPProtocolUDP)
	ip.SetTTL(32)
	ip.SetID(0x55AA)
	pdu.Attach(ip, NewUDP(5000, 6000))

	buf := make([]byte, ip.Size())
	if err := ip.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseIPv4(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*IPv4)
	if got.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if got.TTL() != 32 {
		t.Fatalf("TTL() = %d, want 32", got.TTL())
	}
	if got.ID() != 0x55AA {
		t.Fatalf("ID() = %#x, want 0x55AA", got.ID())
	}
	if got.SrcAddr() != [4]byte{192, 168, 1, 1} {
		t.Fatalf("SrcAddr() = %v", got.SrcAddr())
	}
	inner, ok := got.InnerPDU().(*UDP)
	if !ok {
		t.Fatalf("inner PDU type = %T, want *UDP", got.InnerPDU())
	}
	if inner.DstPort() != 6000 {
		t.Fatalf("DstPort() = %d, want 6000", inner.DstPort())
	}

	// Re-serializing the parsed header must reproduce the original bytes,
	// header checksum included.
	out := make([]byte, got.Size())
	if err := got.Serialize(out); err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if buf[i] != out[i] {
			t.Fatalf("byte %d differs after re-serialize: %#x != %#x", i, buf[i], out[i])
		}
	}
}

func TestParseIPv4OptionsAreMalformed(t *testing.T) {
	ip := NewIPv4([4]byte{1, 2, 3, 4}, [4]byte{5, 6, 7, 8}, layers.IPProtocolTCP)
	buf := make([]byte, ip.Size())
	if err := ip.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 0x46 // IHL = 6, claiming 4 bytes of options that aren't there

	parsed, err := ParseIPv4(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.(*IPv4).Malformed() {
		t.Fatal("expected a non-5 IHL to be reported as malformed")
	}
}

func TestIPv4PseudoHeaderSumMatchesProtocol(t *testing.T) {
	ip := NewIPv4([4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, layers.IPProtocolTCP)
	tcpSum := ip.TCPPseudoHeaderSum(20)
	udpSum := ip.UDPPseudoHeaderSum(20)
	if tcpSum == udpSum {
		t.Fatal("expected TCP and UDP pseudo-header sums to differ by protocol number")
	}
}

func TestMatchesResponseRequiresAddressSwap(t *testing.T) {
	req := NewIPv4([4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, layers.IPProtocolUDP)
	pdu.Attach(req, NewUDP(1111, 2222))

	resp := NewIPv4([4]byte{10, 0, 0, 2}, [4]byte{10, 0, 0, 1}, layers.IPProtocolUDP)
	pdu.Attach(resp, NewUDP(2222, 1111))

	buf := make([]byte, resp.Size())
	if err := resp.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	if !req.MatchesResponse(buf) {
		t.Fatal("expected address-swapped response to match")
	}

	notSwapped := NewIPv4([4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, layers.IPProtocolUDP)
	pdu.Attach(notSwapped, NewUDP(1111, 2222))
	buf2 := make([]byte, notSwapped.Size())
	if err := notSwapped.Serialize(buf2); err != nil {
		t.Fatal(err)
	}
	if req.MatchesResponse(buf2) {
		t.Fatal("expected a non-swapped packet not to match")
	}
}
