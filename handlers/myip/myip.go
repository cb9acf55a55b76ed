// Package myip ports mod_myip.c: a handler that echoes the querying
// client's address back as a TXT, A, or AAAA record, instead of calling
// getnameinfo against a sockaddr the way the C original does, it reads
// the address straight off the request's Peer().
package myip

import (
	"net"

	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// Handler answers client.bind-style qname queries. TXT (class IN or CH)
// returns the textual address; A returns the IPv4 address if the peer is
// IPv4; AAAA returns the IPv6 address if the peer is IPv6. Multiple record
// types are combined when qtype is ANY. All answers use TTL 0.
func Handler(req registry.Request, _ any, _ string, qtype, qclass uint16) {
	reqMsg := req.Query()
	resp := wire.BuildResponse(reqMsg, dns.RcodeSuccess)
	q := reqMsg.Question[0]

	host, isV4, isV6 := peerAddress(req.Peer())
	if host == "" {
		req.SetResponse(resp)
		return
	}

	if (qclass == dns.ClassINET || qclass == dns.ClassCHAOS) &&
		(qtype == dns.TypeTXT || qtype == dns.TypeANY) {
		resp.Answer = append(resp.Answer, &dns.TXT{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: qclass, Ttl: 0},
			Txt: []string{host},
		})
	}

	if qclass == dns.ClassINET && isV4 && (qtype == dns.TypeA || qtype == dns.TypeANY) {
		resp.Answer = append(resp.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 0},
			A:   net.ParseIP(host),
		})
	}

	if qclass == dns.ClassINET && isV6 && (qtype == dns.TypeAAAA || qtype == dns.TypeANY) {
		resp.Answer = append(resp.Answer, &dns.AAAA{
			Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 0},
			AAAA: net.ParseIP(host),
		})
	}

	req.SetResponse(resp)
}

func peerAddress(addr net.Addr) (host string, isV4, isV6 bool) {
	var ip net.IP
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip = a.IP
	case *net.TCPAddr:
		ip = a.IP
	default:
		return "", false, false
	}
	if ip == nil {
		return "", false, false
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String(), true, false
	}
	return ip.String(), false, true
}
