package link

import (
	"testing"

	"github.com/google/gopacket/layers"

	"github.com/cerebras/gotins/bth"
	"github.com/cerebras/gotins/pdu"
)

// TestRoCEv2SendOnlyScenario exercises spec.md's concrete scenario 4: an
// Ethernet/IPv4/UDP/BTH chain carrying an RC_SEND_ONLY segment with a
// 64-byte payload, p_key 0xffff, destqp 0x41, a=1, psn=0x2.
func TestRoCEv2SendOnlyScenario(t *testing.T) {
	e := NewEthernet([6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, [6]byte{0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB}, layers.EthernetTypeIPv4)
	ip := NewIPv4([4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, layers.IPProtocolUDP)
	u := NewUDP(1024, 4791)
	b := bth.New(bth.RCSendOnly)
	b.SetPKey(0xFFFF)

	destQP, err := pdu.NewUint24(0x41)
	if err != nil {
		t.Fatal(err)
	}
	b.SetDestQP(destQP)

	if err := b.SetA(1); err != nil {
		t.Fatal(err)
	}

	psn, err := pdu.NewUint24(0x2)
	if err != nil {
		t.Fatal(err)
	}
	b.SetPSN(psn)

	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}

	pdu.Attach(e, ip)
	pdu.Attach(ip, u)
	pdu.Attach(u, b)
	pdu.Attach(b, pdu.NewRaw(payload))

	buf := make([]byte, e.Size())
	if err := e.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseEthernet(buf)
	if err != nil {
		t.Fatal(err)
	}
	gotBTH := parsed.(*Ethernet).InnerPDU().(*IPv4).InnerPDU().(*UDP).InnerPDU().(*bth.BTH)
	if gotBTH.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if gotBTH.Opcode() != bth.RCSendOnly {
		t.Fatalf("Opcode() = %v, want RCSendOnly", gotBTH.Opcode())
	}
	if gotBTH.PKey() != 0xFFFF {
		t.Fatalf("PKey() = %#x, want 0xffff", gotBTH.PKey())
	}
	if gotBTH.DestQP().Uint32() != 0x41 {
		t.Fatalf("DestQP() = %#x, want 0x41", gotBTH.DestQP().Uint32())
	}
	if gotBTH.A() != 1 {
		t.Fatalf("A() = %d, want 1", gotBTH.A())
	}
	if gotBTH.PSN().Uint32() != 0x2 {
		t.Fatalf("PSN() = %#x, want 0x2", gotBTH.PSN().Uint32())
	}
	inner, ok := gotBTH.InnerPDU().(*pdu.Raw)
	if !ok {
		t.Fatalf("inner PDU type = %T, want *pdu.Raw", gotBTH.InnerPDU())
	}
	if len(inner.Data()) != 64 {
		t.Fatalf("inner payload length = %d, want 64", len(inner.Data()))
	}

	out := make([]byte, parsed.Size())
	if err := parsed.Serialize(out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(buf) {
		t.Fatalf("re-serialized length = %d, want %d", len(out), len(buf))
	}
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d differs after re-serialize: %#x != %#x", i, out[i], buf[i])
		}
	}
}

// TestRoCEv2AcknowledgeScenario exercises spec.md's concrete scenario 5: an
// Ethernet/IPv4/UDP/BTH chain carrying an RC_ACKNOWLEDGE segment with no
// inner PDU, destqp 0xca1839, a=0, psn=0x2, syndrome=0, msn=0xa9d0bd. The
// full chain is exactly 62 bytes: 14 (Ethernet) + 20 (IPv4) + 8 (UDP) + 16
// (BTH base header + AETH) + 4 (ICRC).
func TestRoCEv2AcknowledgeScenario(t *testing.T) {
	e := NewEthernet([6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, [6]byte{0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB}, layers.EthernetTypeIPv4)
	ip := NewIPv4([4]byte{10, 0, 0, 2}, [4]byte{10, 0, 0, 1}, layers.IPProtocolUDP)
	u := NewUDP(1024, 4791)
	b := bth.New(bth.RCAcknowledge)

	destQP, err := pdu.NewUint24(0xCA1839)
	if err != nil {
		t.Fatal(err)
	}
	b.SetDestQP(destQP)

	psn, err := pdu.NewUint24(0x2)
	if err != nil {
		t.Fatal(err)
	}
	b.SetPSN(psn)

	if err := b.SetSyndrome(0); err != nil {
		t.Fatal(err)
	}

	msn, err := pdu.NewUint24(0xA9D0BD)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetMSN(msn); err != nil {
		t.Fatal(err)
	}

	pdu.Attach(e, ip)
	pdu.Attach(ip, u)
	pdu.Attach(u, b)

	if got, want := e.Size(), 62; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	buf := make([]byte, e.Size())
	if err := e.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseEthernet(buf)
	if err != nil {
		t.Fatal(err)
	}
	gotBTH := parsed.(*Ethernet).InnerPDU().(*IPv4).InnerPDU().(*UDP).InnerPDU().(*bth.BTH)
	if gotBTH.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if gotBTH.Opcode() != bth.RCAcknowledge {
		t.Fatalf("Opcode() = %v, want RCAcknowledge", gotBTH.Opcode())
	}
	if gotBTH.DestQP().Uint32() != 0xCA1839 {
		t.Fatalf("DestQP() = %#x, want 0xca1839", gotBTH.DestQP().Uint32())
	}
	if gotBTH.A() != 0 {
		t.Fatalf("A() = %d, want 0", gotBTH.A())
	}
	if gotBTH.PSN().Uint32() != 0x2 {
		t.Fatalf("PSN() = %#x, want 0x2", gotBTH.PSN().Uint32())
	}
	syndrome, err := gotBTH.Syndrome()
	if err != nil {
		t.Fatal(err)
	}
	if syndrome != 0 {
		t.Fatalf("Syndrome() = %#x, want 0", syndrome)
	}
	gotMSN, err := gotBTH.MSN()
	if err != nil {
		t.Fatal(err)
	}
	if gotMSN.Uint32() != 0xA9D0BD {
		t.Fatalf("MSN() = %#x, want 0xa9d0bd", gotMSN.Uint32())
	}
	if gotBTH.InnerPDU() != nil {
		t.Fatalf("expected no inner PDU, got %T", gotBTH.InnerPDU())
	}

	out := make([]byte, parsed.Size())
	if err := parsed.Serialize(out); err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d differs after re-serialize: %#x != %#x", i, out[i], buf[i])
		}
	}
}
