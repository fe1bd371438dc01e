package pdu

import "testing"

func TestAttachSetsParentPointer(t *testing.T) {
	outer := NewRaw([]byte{1, 2, 3})
	inner := NewRaw([]byte{4, 5})
	Attach(outer, inner)

	if outer.InnerPDU() != inner {
		t.Fatalf("outer.InnerPDU() = %v, want inner", outer.InnerPDU())
	}
	if inner.ParentPDU() != outer {
		t.Fatalf("inner.ParentPDU() = %v, want outer", inner.ParentPDU())
	}
}

func TestAttachReplacesPreviousInner(t *testing.T) {
	outer := NewRaw([]byte{1})
	first := NewRaw([]byte{2})
	second := NewRaw([]byte{3})

	Attach(outer, first)
	Attach(outer, second)

	if outer.InnerPDU() != second {
		t.Fatalf("outer.InnerPDU() = %v, want second", outer.InnerPDU())
	}
}

func TestSizeOfComposesThroughChain(t *testing.T) {
	outer := NewRaw([]byte{1, 2, 3, 4})
	inner := NewRaw([]byte{5, 6})
	Attach(outer, inner)

	if got, want := outer.Size(), 6; got != want {
		t.Fatalf("outer.Size() = %d, want %d", got, want)
	}
}

func TestRegistryLookupNextTriesClassesInOrder(t *testing.T) {
	t.Cleanup(func() {
		Unregister(KindUDP, DstPort, 9999)
		Unregister(KindUDP, SrcPort, 9999)
	})

	dstCalled := false
	Register(KindUDP, DstPort, 9999, func(data []byte) (PDU, error) {
		dstCalled = true
		return NewRaw(data), nil
	})

	srcCalled := false
	Register(KindUDP, SrcPort, 9999, func(data []byte) (PDU, error) {
		srcCalled = true
		return NewRaw(data), nil
	})

	ctor, ok := LookupNext(KindUDP, 9999, DstPort, SrcPort)
	if !ok {
		t.Fatal("expected a match")
	}
	if _, err := ctor(nil); err != nil {
		t.Fatal(err)
	}
	if !dstCalled || srcCalled {
		t.Fatalf("expected DstPort constructor to win, dstCalled=%v srcCalled=%v", dstCalled, srcCalled)
	}
}

func TestRegistryLookupMiss(t *testing.T) {
	if _, ok := LookupNext(KindUDP, 123456, DstPort, SrcPort); ok {
		t.Fatal("expected no match for unregistered selector value")
	}
}

func TestUint24RoundTrip(t *testing.T) {
	u, err := NewUint24(0x123456)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := u.Uint32(), uint32(0x123456); got != want {
		t.Fatalf("Uint32() = %#x, want %#x", got, want)
	}
	b := u.Bytes()
	if b != [3]byte{0x12, 0x34, 0x56} {
		t.Fatalf("Bytes() = %v, want [0x12 0x34 0x56]", b)
	}
}

func TestUint24OutOfRange(t *testing.T) {
	if _, err := NewUint24(0x01000000); err == nil {
		t.Fatal("expected an error for a value that doesn't fit in 24 bits")
	}
}
