/*
Package gotins is a packet crafting and dissection library.

A raw byte buffer decodes into a typed chain of PDUs (protocol data units),
each carrying accessor-level fields for its own header, linked to the PDU it
is nested inside of. A PDU chain built or parsed this way serializes back
into a byte buffer that reproduces the original bytes exactly, including any
checksums the chain computes along the way.

Contents

The pdu package holds the engine every layer builds on: the PDU interface,
the inner/parent composition operator Attach, the next-protocol registry
that lets an upper layer's constructor dispatch into whatever layer follows
it, byte-stream cursors, and the bounded-integer and checksum helpers
layers need for sub-byte and 24-bit wire fields and RFC 1071 sums.

Three specimen protocols exercise the engine end to end: dns (name
compression, resource records), tcp (options, pseudo-header checksums), and
bth (the Infiniband Base Transport Header, its nine optional extension
headers, and the ICRC trailer). The link package provides the minimal
Ethernet, IPv4, and UDP shells these specimens need to sit inside a
realistic capture.

cmd/pdudump is a small CLI that decodes a file of length-prefixed raw
packets, prints the resulting PDU chain, and reports whether re-serializing
it reproduces the input exactly.
*/
package gotins
