// Package as112 ports oas112d.c's as112_callback: an AS112-style sink
// zone responder for a configured "blackhole" zone. It answers SOA and NS
// queries for the zone apex out of static data and NXDOMAINs (with an SOA
// in the authority section) everything else.
package as112

import (
	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// TTL is the answer TTL the C original hard-codes for all three records.
const TTL = 300

// Zone describes the nameservers and SOA fields to synthesize answers
// from, matching the static t_soa/t_ns1/t_ns2 strings in oas112d.c.
type Zone struct {
	MName   string // SOA MNAME, e.g. "a.as112.net."
	RName   string // SOA RNAME, e.g. "hostmaster.root-servers.org."
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	MinTTL  uint32
	NS      []string // e.g. {"b.as112.net.", "c.as112.net."}
}

// DefaultZone mirrors the literal constants in oas112d.c.
var DefaultZone = Zone{
	MName:   "a.as112.net.",
	RName:   "hostmaster.root-servers.org.",
	Serial:  2002040800,
	Refresh: 1800,
	Retry:   900,
	Expire:  604800,
	MinTTL:  604800,
	NS:      []string{"b.as112.net.", "c.as112.net."},
}

// New returns a handler that answers queries for the zone's apex name.
// SOA and NS qtypes (or ANY) populate the answer section; anything else
// gets NXDOMAIN with the SOA in the authority section.
func New(zone Zone) registry.Handler {
	return func(req registry.Request, _ any, qname string, qtype, _ uint16) {
		reqMsg := req.Query()
		resp := wire.BuildResponse(reqMsg, dns.RcodeRefused)
		owner := reqMsg.Question[0].Name

		soa := &dns.SOA{
			Hdr:     dns.RR_Header{Name: owner, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: TTL},
			Ns:      zone.MName,
			Mbox:    zone.RName,
			Serial:  zone.Serial,
			Refresh: zone.Refresh,
			Retry:   zone.Retry,
			Expire:  zone.Expire,
			Minttl:  zone.MinTTL,
		}

		if qtype == dns.TypeANY || qtype == dns.TypeSOA {
			resp.Answer = append(resp.Answer, soa)
		}
		if qtype == dns.TypeANY || qtype == dns.TypeNS {
			for _, ns := range zone.NS {
				resp.Answer = append(resp.Answer, &dns.NS{
					Hdr: dns.RR_Header{Name: owner, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: TTL},
					Ns:  ns,
				})
			}
		}

		if len(resp.Answer) > 0 {
			resp.Rcode = dns.RcodeSuccess
		} else {
			resp.Rcode = dns.RcodeNameError
			resp.Ns = append(resp.Ns, soa)
		}
		resp.Authoritative = true
		req.SetResponse(resp)
	}
}
