package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raybellis/evldns/internal/reactor"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return New(r, nil)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "udp", KindUDP.String())
	assert.Equal(t, "tcp", KindTCP.String())
}

func TestAddPortRejectsUnsupportedFD(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.AddPort(-1)
	require.Error(t, err)
}

func TestPortRefcountDestroyOnWatcherRelease(t *testing.T) {
	p := &Port{fd: 99, kind: KindUDP, refcount: 1, server: newTestServer(t)}
	p.server.ports[99] = p
	// Simulate a single in-flight request keeping the port alive past Close.
	p.acquire()
	p.closing = true
	p.release() // releases the watcher's own contribution; refcount now 1 (held request)
	assert.Equal(t, 1, p.refcount)
	_, stillTracked := p.server.ports[99]
	assert.True(t, stillTracked)

	p.release() // last request finishes
	assert.Equal(t, 0, p.refcount)
	_, stillTracked = p.server.ports[99]
	assert.False(t, stillTracked)
}

func TestRegisterHandlerDelegatesToRegistry(t *testing.T) {
	srv := newTestServer(t)
	srv.RegisterHandler("", false, 1, 1, nil, "payload")
	require.Len(t, srv.Registry().Entries(), 1)
	assert.Equal(t, "payload", srv.Registry().Entries()[0].UserData)
}
