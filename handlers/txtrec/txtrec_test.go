package txtrec

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raybellis/evldns/internal/dispatch"
	"github.com/raybellis/evldns/internal/registry"
)

type fakeRequest struct {
	query    *dns.Msg
	response *dns.Msg
	wire     []byte
}

func (r *fakeRequest) SetQuery(m *dns.Msg)      { r.query = m }
func (r *fakeRequest) Query() *dns.Msg          { return r.query }
func (r *fakeRequest) Peer() net.Addr           { return nil }
func (r *fakeRequest) SetResponse(m *dns.Msg)   { r.response = m }
func (r *fakeRequest) Response() *dns.Msg       { return r.response }
func (r *fakeRequest) SetResponseWire(b []byte) { r.wire = b }
func (r *fakeRequest) ResponseWire() []byte     { return r.wire }

func TestTXTRecordHandlerAnswersFixedText(t *testing.T) {
	reg := registry.New()
	reg.Register("", false, dns.ClassANY, dns.TypeANY, New("hello world"), nil)

	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeTXT)
	raw, err := q.Pack()
	require.NoError(t, err)

	req := &fakeRequest{}
	res := dispatch.Run(reg, req, raw)
	require.Equal(t, dispatch.Responded, res)
	require.Len(t, req.Response().Answer, 1)

	rr, ok := req.Response().Answer[0].(*dns.TXT)
	require.True(t, ok)
	assert.Equal(t, uint32(0), rr.Hdr.Ttl)
	assert.Equal(t, []string{"hello world"}, rr.Txt)
}
