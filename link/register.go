package link

import (
	"github.com/cerebras/gotins/bth"
	"github.com/cerebras/gotins/dns"
	"github.com/cerebras/gotins/pdu"
)

// init wires the specimen upper layers into the next-protocol registry at
// their well-known ports, the same way a host application would during
// startup: BTH rides RoCEv2 over UDP destination port 4791, DNS rides UDP
// destination port 53.
func init() {
	pdu.Register(pdu.KindUDP, pdu.DstPort, 4791, bth.Parse)
	pdu.Register(pdu.KindUDP, pdu.DstPort, 53, dns.Parse)
}
