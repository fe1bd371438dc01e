package pdu

import "errors"

// Sentinel error kinds. Layers wrap these with fmt.Errorf("%w: ...") to add
// context; callers that only care about the kind use errors.Is.
var (
	// ErrMalformedPacket is returned by a static metadata probe, or by a
	// constructor, when not even the base header for a layer fits in the
	// supplied buffer.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrFieldNotPresent is returned when accessing an extension-header
	// field whose presence bit is false, or a field shared by mutually
	// exclusive extensions none of which is present.
	ErrFieldNotPresent = errors.New("field not present")

	// ErrOptionNotFound is returned by a typed TCP option accessor when
	// the option is absent from the option list.
	ErrOptionNotFound = errors.New("option not found")

	// ErrOutOfRange is returned when a bounded integer (24-bit DestQP,
	// 2-bit PadCnt, 4-bit TVer, ...) is assigned a value outside its
	// legal domain.
	ErrOutOfRange = errors.New("value out of range")
)
