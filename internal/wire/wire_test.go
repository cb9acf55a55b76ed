package wire

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarshalRoundTrip(t *testing.T) {
	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeA)
	raw, err := m.Pack()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "example.com.", parsed.Question[0].Name)
	assert.Equal(t, dns.TypeA, parsed.Question[0].Qtype)

	out, err := Marshal(parsed)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x01})
	assert.Error(t, err)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "example.com", CanonicalName("EXAMPLE.com."))
	assert.Equal(t, "example.com", CanonicalName("example.com"))
	assert.Equal(t, "", CanonicalName("."))
}

func TestMatchWildcard(t *testing.T) {
	cases := []struct {
		name, pattern, qname string
		want                 bool
	}{
		{"exact match", "example.com", "example.com", true},
		{"exact mismatch", "example.com", "other.com", false},
		{"bare star matches anything", "*", "foo.bar", true},
		{"bare star matches single label", "*", "foo", true},
		{"wildcard label match", "*.example.com", "foo.example.com", true},
		{"wildcard requires exactly one extra label", "*.example.com", "foo.bar.example.com", false},
		{"wildcard suffix mismatch", "*.example.com", "foo.example.org", false},
		{"no star prefix is literal", "foo.*.com", "foo.bar.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchWildcard(tc.pattern, tc.qname))
		})
	}
}

func TestBuildResponse(t *testing.T) {
	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeA)
	req.Id = 1234
	req.CheckingDisabled = true
	req.RecursionDesired = true

	resp := BuildResponse(req, dns.RcodeRefused)
	assert.Equal(t, req.Id, resp.Id)
	assert.True(t, resp.Response)
	assert.Equal(t, dns.OpcodeQuery, resp.Opcode)
	assert.Equal(t, dns.RcodeRefused, resp.Rcode)
	assert.True(t, resp.CheckingDisabled)
	assert.True(t, resp.RecursionDesired)
	require.Len(t, resp.Question, 1)
	assert.Equal(t, "example.com.", resp.Question[0].Name)
}
