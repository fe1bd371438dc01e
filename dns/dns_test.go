package dns

import "testing"

func TestAddQueryAndRoundTrip(t *testing.T) {
	d := New()
	d.SetID(0xABCD)
	d.SetRecursionDesired(true)
	d.AddQuery("www.example.com", TypeA, ClassIN)

	buf := make([]byte, d.Size())
	if err := d.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*DNS)
	if got.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if got.ID() != 0xABCD {
		t.Fatalf("ID() = %#x, want 0xABCD", got.ID())
	}
	if !got.RecursionDesired() {
		t.Fatal("expected RD set")
	}
	if len(got.Queries()) != 1 || got.Queries()[0].Name != "www.example.com" {
		t.Fatalf("Queries() = %v", got.Queries())
	}
}

func TestAnswerNameCompressionReusesQueryName(t *testing.T) {
	d := New()
	d.AddQuery("example.com", TypeCNAME, ClassIN)
	d.AddAnswerName("example.com", TypeCNAME, ClassIN, 300, "target.example.com")

	if d.answers[0].ownerPointer == nil {
		t.Fatal("expected the answer's owner name to compress to the query's name")
	}
	if *d.answers[0].ownerPointer != headerSize {
		t.Fatalf("ownerPointer = %d, want %d", *d.answers[0].ownerPointer, headerSize)
	}

	buf := make([]byte, d.Size())
	if err := d.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*DNS)
	if got.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if len(got.Answers()) != 1 {
		t.Fatalf("Answers() len = %d, want 1", len(got.Answers()))
	}
	if got.Answers()[0].Name != "example.com" {
		t.Fatalf("answer owner name = %q, want example.com", got.Answers()[0].Name)
	}
	target, err := got.Answers()[0].DomainName()
	if err != nil {
		t.Fatal(err)
	}
	if target != "target.example.com" {
		t.Fatalf("DomainName() = %q, want target.example.com", target)
	}
}

func TestParsedAnswerRetainsOwnerPointerAndRoundTrips(t *testing.T) {
	d := New()
	d.AddQuery("example.com", TypeCNAME, ClassIN)
	d.AddAnswerName("example.com", TypeCNAME, ClassIN, 300, "target.example.com")

	buf := make([]byte, d.Size())
	if err := d.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*DNS)
	if got.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	if got.answers[0].ownerPointer == nil {
		t.Fatal("expected the parsed answer to record its owner name as a compression pointer")
	}
	if *got.answers[0].ownerPointer != headerSize {
		t.Fatalf("parsed ownerPointer = %d, want %d", *got.answers[0].ownerPointer, headerSize)
	}

	out := make([]byte, got.Size())
	if err := got.Serialize(out); err != nil {
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

// TestParseCNAMERDataCompressedAgainstQuestionRoundTrips builds a message by
// hand where a CNAME answer's RDATA is a bare two-byte compression pointer
// back to the question name, rather than a literal encoded name. RData must
// come out of Parse holding those two raw pointer bytes, DomainName must
// still resolve the pointer to the right string, and re-serializing must
// reproduce the exact input bytes.
func TestParseCNAMERDataCompressedAgainstQuestionRoundTrips(t *testing.T) {
	var buf []byte
	putUint16 := func(v uint16) { buf = append(buf, byte(v>>8), byte(v)) }
	putUint32 := func(v uint32) { buf = append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }

	putUint16(1)      // id
	putUint16(0x8000) // flags: QR set
	putUint16(1)      // qdcount
	putUint16(1)      // ancount
	putUint16(0)      // nscount
	putUint16(0)      // arcount

	qNameOffset := uint16(len(buf))
	buf = append(buf, encodeName("example.com")...)
	putUint16(uint16(TypeA))
	putUint16(uint16(ClassIN))

	buf = append(buf, encodeName("www.example.com")...)
	putUint16(uint16(TypeCNAME))
	putUint16(uint16(ClassIN))
	putUint32(300)
	rdata := pointerBytes(qNameOffset)
	putUint16(uint16(len(rdata)))
	buf = append(buf, rdata[:]...)

	parsed, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*DNS)
	if got.Malformed() {
		t.Fatal("unexpectedly malformed")
	}
	answers := got.Answers()
	if len(answers) != 1 {
		t.Fatalf("Answers() len = %d, want 1", len(answers))
	}
	if len(answers[0].RData) != 2 || answers[0].RData[0] != rdata[0] || answers[0].RData[1] != rdata[1] {
		t.Fatalf("RData = %v, want the raw pointer %v", answers[0].RData, rdata)
	}
	target, err := answers[0].DomainName()
	if err != nil {
		t.Fatal(err)
	}
	if target != "example.com" {
		t.Fatalf("DomainName() = %q, want example.com", target)
	}

	out := make([]byte, got.Size())
	if err := got.Serialize(out); err != nil {
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

func TestAddAnswerARecordRoundTrip(t *testing.T) {
	d := New()
	d.AddQuery("host.example.com", TypeA, ClassIN)
	d.AddAnswer("host.example.com", TypeA, ClassIN, 60, [4]byte{192, 0, 2, 1})

	buf := make([]byte, d.Size())
	if err := d.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := parsed.(*DNS)
	addr, err := got.Answers()[0].Address()
	if err != nil {
		t.Fatal(err)
	}
	if addr != [4]byte{192, 0, 2, 1} {
		t.Fatalf("Address() = %v, want [192 0 2 1]", addr)
	}
}

func TestDecodeNameFollowsPointerChain(t *testing.T) {
	// "example.com" spelled at offset 12, then "www" at offset 30 pointing
	// back at offset 12, forming www.example.com without a literal copy of
	// "example.com".
	data := make([]byte, 40)
	copy(data[12:], encodeName("example.com"))
	data[30] = 3
	copy(data[31:], "www")
	data[34] = 0xC0
	data[35] = 12

	name, next, err := decodeName(data, 30)
	if err != nil {
		t.Fatal(err)
	}
	if name != "www.example.com" {
		t.Fatalf("decodeName() = %q, want www.example.com", name)
	}
	if next != 36 {
		t.Fatalf("next = %d, want 36", next)
	}
}

func TestParseTooShortIsError(t *testing.T) {
	if _, err := Parse(make([]byte, 4)); err == nil {
		t.Fatal("expected an error for a buffer shorter than the DNS header")
	}
}

func TestMatchesResponseChecksIDAndQRBit(t *testing.T) {
	d := New()
	d.SetID(42)
	d.SetType(QueryMessage)

	resp := New()
	resp.SetID(42)
	resp.SetType(ResponseMessage)
	buf := make([]byte, resp.Size())
	if err := resp.Serialize(buf); err != nil {
		t.Fatal(err)
	}
	if !d.MatchesResponse(buf) {
		t.Fatal("expected matching transaction ID + QR bit to match")
	}

	mismatched := New()
	mismatched.SetID(99)
	mismatched.SetType(ResponseMessage)
	mismatchedBuf := make([]byte, mismatched.Size())
	if err := mismatched.Serialize(mismatchedBuf); err != nil {
		t.Fatal(err)
	}
	if d.MatchesResponse(mismatchedBuf) {
		t.Fatal("expected mismatched transaction ID not to match")
	}
}
