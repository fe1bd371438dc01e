// Command pdudump decodes a file of length-prefixed raw packets, prints the
// resulting PDU chain for each, and reports whether re-serializing it
// reproduces the original bytes exactly.
//
// The input format is a sequence of records, each a big-endian uint32 byte
// count followed by that many bytes of a single captured frame starting at
// the Ethernet header (or at the IPv4 header with -ip). There is no pcap
// support: capture I/O is out of
// scope for this tool, which only exercises the decode/encode round trip.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cerebras/gotins/link"
	"github.com/cerebras/gotins/pdu"
)

var (
	output    = flag.String("output", "-", "Output filename")
	quiet     = flag.Bool("quiet", false, "suppress the per-packet field dump, print only the round-trip summary")
	startOnIP = flag.Bool("ip", false, "treat each record as starting at an IPv4 header instead of an Ethernet header")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [args] file1 [file2] [...]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	var out io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal("couldn't open file ", *output, ": ", err)
		}
		defer f.Close()
		out = f
	}

	total, exact := 0, 0
	for _, name := range flag.Args() {
		n, e, err := dumpFile(out, name)
		if err != nil {
			log.Fatalf("%s: %v", name, err)
		}
		total += n
		exact += e
	}
	fmt.Fprintf(out, "%d/%d packets round-tripped bit-exact\n", exact, total)
	if exact != total {
		os.Exit(1)
	}
}

func dumpFile(out io.Writer, name string) (total, exact int, err error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var lenBuf [4]byte
	for {
		_, err := io.ReadFull(f, lenBuf[:])
		if err == io.EOF {
			return total, exact, nil
		}
		if err != nil {
			return total, exact, fmt.Errorf("reading record length: %w", err)
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		data := make([]byte, n)
		if _, err := io.ReadFull(f, data); err != nil {
			return total, exact, fmt.Errorf("reading record body: %w", err)
		}

		total++
		if dumpPacket(out, total, data) {
			exact++
		}
	}
}

func dumpPacket(out io.Writer, index int, data []byte) bool {
	var root pdu.PDU
	var err error
	if *startOnIP {
		root, err = link.ParseIPv4(data)
	} else {
		root, err = link.ParseEthernet(data)
	}
	if err != nil {
		fmt.Fprintf(out, "packet %d: parse error: %v\n", index, err)
		return false
	}

	if !*quiet {
		fmt.Fprintf(out, "packet %d:\n", index)
		printChain(out, root, 1)
	}

	buf := make([]byte, root.Size())
	if err := root.Serialize(buf); err != nil {
		fmt.Fprintf(out, "packet %d: serialize error: %v\n", index, err)
		return false
	}
	exact := bytes.Equal(buf, data)
	if !*quiet {
		fmt.Fprintf(out, "  round trip: %v\n", exact)
	}
	return exact
}

func printChain(out io.Writer, p pdu.PDU, depth int) {
	indent := bytes.Repeat([]byte("  "), depth)
	fmt.Fprintf(out, "%s%s (header=%d trailer=%d size=%d malformed=%v)\n",
		indent, p.Kind(), p.HeaderSize(), p.TrailerSize(), p.Size(), p.Malformed())
	if inner := p.InnerPDU(); inner != nil {
		printChain(out, inner, depth+1)
	}
}
