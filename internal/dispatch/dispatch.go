// Package dispatch implements the per-message pipeline shared by both
// transport drivers: parse, reject responses, walk the registry invoking
// eligible handlers until one attaches a response, and serialize (or
// synthesize a default REFUSED) if none did.
package dispatch

import (
	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// Result describes the outcome of a dispatch attempt.
type Result int

const (
	// Responded means req.ResponseWire() now holds bytes ready to send.
	Responded Result = iota
	// Dropped means the input was malformed, was itself a response
	// (QR=1), had no question, or a response could not be serialized;
	// the caller sends nothing back.
	Dropped
)

// Run executes the dispatch pipeline for one raw wire-format message
// against reg, recording progress on req.
func Run(reg *registry.Registry, req registry.Request, raw []byte) Result {
	msg, err := wire.Parse(raw)
	if err != nil {
		return Dropped
	}
	if msg.Response {
		return Dropped
	}
	if len(msg.Question) == 0 {
		return Dropped
	}
	req.SetQuery(msg)

	q := msg.Question[0]
	qname := wire.CanonicalName(q.Name)
	qtype := q.Qtype
	qclass := q.Qclass

	for _, e := range reg.Entries() {
		if !e.MatchesClass(qclass) || !e.MatchesType(qtype) || !e.MatchesName(qname) {
			continue
		}
		e.Handler(req, e.UserData, qname, qtype, qclass)
		if req.Response() != nil || req.ResponseWire() != nil {
			break
		}
	}

	if req.Response() == nil && req.ResponseWire() == nil {
		req.SetResponse(wire.BuildResponse(msg, dns.RcodeRefused))
	}
	if req.ResponseWire() == nil {
		b, err := wire.Marshal(req.Response())
		if err != nil {
			return Dropped
		}
		req.SetResponseWire(b)
	}
	return Responded
}
