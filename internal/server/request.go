package server

import (
	"net"

	"github.com/miekg/dns"
)

// baseRequest implements the registry.Request accessors shared by both
// transports; udpRequest and tcpRequest embed it and add their own
// transport-specific fields.
type baseRequest struct {
	query    *dns.Msg
	response *dns.Msg
	wire     []byte
	peer     net.Addr
}

func (r *baseRequest) SetQuery(m *dns.Msg)      { r.query = m }
func (r *baseRequest) Query() *dns.Msg          { return r.query }
func (r *baseRequest) Peer() net.Addr           { return r.peer }
func (r *baseRequest) SetResponse(m *dns.Msg)   { r.response = m }
func (r *baseRequest) Response() *dns.Msg       { return r.response }
func (r *baseRequest) SetResponseWire(b []byte) { r.wire = b }
func (r *baseRequest) ResponseWire() []byte     { return r.wire }

func (r *baseRequest) reset() {
	r.query = nil
	r.response = nil
	r.wire = nil
}
