package pdu

// Raw is the generic fallback PDU: an opaque byte blob with no further
// structure. Every upper layer's next-protocol dispatch falls back to Raw
// on a registry miss, matching the registry contract in spec.md §4.2.
type Raw struct {
	Base
	data []byte
}

// NewRaw wraps data (not copied) as a Raw PDU.
func NewRaw(data []byte) *Raw {
	return &Raw{data: data}
}

func (r *Raw) Data() []byte { return r.data }

func (r *Raw) HeaderSize() int  { return len(r.data) }
func (r *Raw) TrailerSize() int { return 0 }
func (r *Raw) Size() int        { return SizeOf(r) }
func (r *Raw) Kind() Kind       { return KindRaw }

func (r *Raw) Clone() PDU {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	clone := &Raw{data: data}
	if inner := r.InnerPDU(); inner != nil {
		Attach(clone, inner.Clone())
	}
	return clone
}

func (r *Raw) Serialize(buf []byte) error {
	copy(buf, r.data)
	return nil
}

// MatchesResponse for a Raw PDU is a byte-exact comparison: raw payloads
// have no header to reason about, so a response "matches" only if the
// bytes read back out are identical to what this Raw holds.
func (r *Raw) MatchesResponse(data []byte) bool {
	if len(data) != len(r.data) {
		return false
	}
	for i := range r.data {
		if data[i] != r.data[i] {
			return false
		}
	}
	return true
}
