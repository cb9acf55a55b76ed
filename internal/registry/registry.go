// Package registry holds the ordered set of handler entries the dispatch
// pipeline consults for every incoming query: each entry names an optional
// qname pattern and a class/type filter, and wraps a callable together
// with the opaque user data it was registered with.
package registry

import (
	"net"

	"github.com/miekg/dns"

	"github.com/raybellis/evldns/internal/wire"
)

// Request is the per-query object handlers observe and mutate. Transport
// drivers supply the concrete implementation (one per in-flight UDP
// datagram or TCP message); dispatch and handlers only ever see this
// interface.
type Request interface {
	// SetQuery attaches the parsed request message. Called once by the
	// dispatch pipeline before any handler runs.
	SetQuery(m *dns.Msg)
	// Query returns the parsed request message.
	Query() *dns.Msg
	// Peer returns the address the query arrived from, or nil if unknown.
	Peer() net.Addr
	// SetResponse attaches a structured response. Setting it (or
	// SetResponseWire) marks the request as answered and stops dispatch
	// from trying further handlers.
	SetResponse(m *dns.Msg)
	// Response returns the structured response previously attached, or
	// nil.
	Response() *dns.Msg
	// SetResponseWire attaches a raw wire-format response directly,
	// bypassing serialization of Response. Used by handlers that mutate
	// already-serialized bytes (fault injection) or build the wire form
	// themselves.
	SetResponseWire(b []byte)
	// ResponseWire returns the wire-format response previously attached,
	// or nil.
	ResponseWire() []byte
}

// Handler is the callback ABI every registry entry wraps: given the
// request, the opaque data it was registered with, and the query's
// canonical name/type/class, it may attach a response to req.
type Handler func(req Request, userData any, qname string, qtype, qclass uint16)

// Entry is one registered handler slot.
type Entry struct {
	Pattern    string // canonical form; only meaningful when HasPattern
	HasPattern bool
	Class      uint16
	Type       uint16
	Handler    Handler
	UserData   any
}

// MatchesClass reports whether qclass is eligible for this entry.
func (e Entry) MatchesClass(qclass uint16) bool {
	return e.Class == dns.ClassANY || e.Class == qclass
}

// MatchesType reports whether qtype is eligible for this entry.
func (e Entry) MatchesType(qtype uint16) bool {
	return e.Type == dns.TypeANY || e.Type == qtype
}

// MatchesName reports whether qname (already canonical) is eligible for
// this entry's pattern, or always true if the entry has no pattern.
func (e Entry) MatchesName(qname string) bool {
	if !e.HasPattern {
		return true
	}
	return wire.MatchWildcard(e.Pattern, qname)
}

// Registry is an ordered, append-only (at runtime) list of entries.
// Nothing here is safe for concurrent use; callers on the single reactor
// goroutine may append to it from within a handler, and the append is only
// visible starting with the next dispatch — not the one in progress, since
// Entries returns the slice header as it stood when the range began.
type Registry struct {
	entries []Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a new entry. pattern is ignored unless hasPattern is
// true, in which case it is canonicalized once, here, rather than on every
// dispatch.
func (r *Registry) Register(pattern string, hasPattern bool, class, typ uint16, h Handler, userData any) {
	e := Entry{
		Class:    class,
		Type:     typ,
		Handler:  h,
		UserData: userData,
	}
	if hasPattern {
		e.Pattern = wire.CanonicalName(pattern)
		e.HasPattern = true
	}
	r.entries = append(r.entries, e)
}

// Entries returns the current entry list in registration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}
