// Package txtrec ports mod_txtrec.c: a handler that always answers with a
// fixed TXT record, the text supplied at registration time.
package txtrec

import (
	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// New returns a handler that answers any matching query with a TXT record
// containing text, at TTL 0 as the C original does.
func New(text string) registry.Handler {
	return func(req registry.Request, _ any, _ string, _, _ uint16) {
		reqMsg := req.Query()
		resp := wire.BuildResponse(reqMsg, dns.RcodeSuccess)
		q := reqMsg.Question[0]
		resp.Answer = append(resp.Answer, &dns.TXT{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 0},
			Txt: []string{text},
		})
		req.SetResponse(resp)
	}
}
