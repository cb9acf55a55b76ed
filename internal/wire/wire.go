// Package wire is the external DNS message codec boundary: every part of
// the server that needs to parse, inspect, or build a DNS message goes
// through here, and here alone delegates the actual wire format to
// github.com/miekg/dns rather than implementing RFC 1035 encoding itself.
package wire

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// MaxUDPMessageSize is the largest datagram a UDP port driver will
// allocate a receive buffer for. Individual messages may of course be
// smaller; EDNS0 buffer-size negotiation, if any, is the concern of
// handlers, not this package.
const MaxUDPMessageSize = 65535

// MaxTCPMessageSize is the largest body a length-prefixed TCP frame may
// declare, matching the 16-bit length prefix's range.
const MaxTCPMessageSize = 65535

// Parse decodes raw wire bytes into a message. Truncated or structurally
// invalid input is returned as an error, never a partially-populated
// message.
func Parse(raw []byte) (*dns.Msg, error) {
	m := new(dns.Msg)
	if err := m.Unpack(raw); err != nil {
		return nil, fmt.Errorf("wire: parse: %w", err)
	}
	return m, nil
}

// Marshal serializes a message to wire format.
func Marshal(m *dns.Msg) ([]byte, error) {
	b, err := m.Pack()
	if err != nil {
		return nil, fmt.Errorf("wire: marshal: %w", err)
	}
	return b, nil
}

// CanonicalName normalizes a domain name for registry lookups and
// comparisons: lowercased, without a trailing root dot. Two names that
// differ only in case or in the presence of a trailing dot compare equal
// once passed through CanonicalName.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// MatchWildcard reports whether a canonical qname matches a registry
// pattern. A bare "*" matches any qname. A pattern of the form "*.rest"
// matches names with exactly one more label than "rest", where that extra
// leftmost label may be anything and the remaining labels compare equal
// case-insensitively (both sides are expected to already be canonical).
// Patterns without a leading "*" label must match exactly.
func MatchWildcard(pattern, name string) bool {
	if pattern == name {
		return true
	}
	if pattern == "*" {
		return true
	}
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	suffix := pattern[2:]
	patLabels := strings.Split(suffix, ".")
	nameLabels := strings.Split(name, ".")
	if len(nameLabels) != len(patLabels)+1 {
		return false
	}
	rest := nameLabels[1:]
	for i := range patLabels {
		if patLabels[i] != rest[i] {
			return false
		}
	}
	return true
}

// BuildResponse constructs a response message for req: ID, CD and RD are
// copied from the request, QR is set, opcode is forced to QUERY, rcode is
// the supplied value, and the question section is cloned from req. Answer,
// authority and additional sections are left empty for the caller to
// populate.
func BuildResponse(req *dns.Msg, rcode int) *dns.Msg {
	resp := new(dns.Msg)
	resp.Id = req.Id
	resp.Response = true
	resp.Opcode = dns.OpcodeQuery
	resp.CheckingDisabled = req.CheckingDisabled
	resp.RecursionDesired = req.RecursionDesired
	resp.Rcode = rcode
	if len(req.Question) > 0 {
		resp.Question = append([]dns.Question(nil), req.Question...)
	}
	return resp
}
