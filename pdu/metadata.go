package pdu

// Metadata is the result of a layer's static extract_metadata probe: enough
// information for a scanner to decide whether to proceed with a full parse,
// without actually building the PDU. HeaderSize is this layer's declared
// header size (as opposed to its actual parsed size, which may differ if
// the buffer turns out to be malformed); NextKind is KindRaw when the next
// layer can't be guessed without fully decoding this one.
type Metadata struct {
	HeaderSize int
	Kind       Kind
	NextKind   Kind
}
