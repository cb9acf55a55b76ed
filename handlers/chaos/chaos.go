// Package chaos ports trunk/chaos.c's two class-ANY/type-ANY filters:
// QueryOnly, a request-shape gatekeeper meant to run first in the chain,
// and NXDomain, a catch-all negative responder meant to run last.
package chaos

import (
	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// QueryOnly rejects anything that is not a well-formed single-question
// query: a non-QUERY opcode gets NOTIMPL, and a response packet (QR=1) or
// a QDCOUNT other than 1 gets FORMERR. Register it class-ANY/type-ANY and
// ahead of any other handler so malformed input never reaches them.
func QueryOnly(req registry.Request, _ any, _ string, _, _ uint16) {
	m := req.Query()
	if m.Opcode != dns.OpcodeQuery {
		req.SetResponse(wire.BuildResponse(m, dns.RcodeNotImplemented))
		return
	}
	if m.Response || len(m.Question) != 1 {
		req.SetResponse(wire.BuildResponse(m, dns.RcodeFormatError))
	}
}

// NXDomain unconditionally answers NXDOMAIN. Register it class-ANY/type-ANY
// and last, as a catch-all for anything more specific handlers declined.
func NXDomain(req registry.Request, _ any, _ string, _, _ uint16) {
	req.SetResponse(wire.BuildResponse(req.Query(), dns.RcodeNameError))
}
