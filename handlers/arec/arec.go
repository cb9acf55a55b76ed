// Package arec ports mod_arec.c: a handler that always answers with a
// fixed A record, the address supplied at registration time.
package arec

import (
	"net"

	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// TTL is the answer TTL the C original hard-codes (3600 seconds).
const TTL = 3600

// New returns a handler that answers any matching query with an A record
// for ip.
func New(ip net.IP) registry.Handler {
	addr := ip.To4()
	return func(req registry.Request, _ any, _ string, _, _ uint16) {
		reqMsg := req.Query()
		resp := wire.BuildResponse(reqMsg, dns.RcodeSuccess)
		q := reqMsg.Question[0]
		resp.Answer = append(resp.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: TTL},
			A:   addr,
		})
		req.SetResponse(resp)
	}
}
