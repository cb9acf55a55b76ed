// Package server owns the reactor-driven server context: the set of bound
// ports, their refcounted lifecycle, and the handler registry they
// dispatch into. It also carries the UDP and TCP port drivers (udp.go,
// tcp.go), kept in this package rather than split out, the way the
// teacher keeps its UDP and TCP server implementations side by side under
// internal/server.
package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/raybellis/evldns/internal/reactor"
	"github.com/raybellis/evldns/internal/registry"
)

// ErrUnsupportedSocket is returned by AddPort when the fd is neither a
// datagram nor a stream socket.
var ErrUnsupportedSocket = errors.New("server: unsupported socket type")

// Kind identifies the transport a Port speaks.
type Kind int

const (
	KindUDP Kind = iota
	KindTCP
)

func (k Kind) String() string {
	if k == KindTCP {
		return "tcp"
	}
	return "udp"
}

// Server is the reactor-bound context: a registry of handlers and the
// ports dispatching into it. There is no locking because everything here
// runs on the single goroutine driving reactor.Run.
type Server struct {
	reactor  *reactor.Reactor
	registry *registry.Registry
	ports    map[int]*Port
	logger   *slog.Logger
}

// New creates a server bound to an already-constructed reactor. logger may
// be nil, in which case logging is a no-op.
func New(r *reactor.Reactor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		reactor:  r,
		registry: registry.New(),
		ports:    make(map[int]*Port),
		logger:   logger,
	}
}

// Registry exposes the handler registry so callers can register handlers
// directly, or via RegisterHandler below.
func (s *Server) Registry() *registry.Registry { return s.registry }

// RegisterHandler adds a handler entry. See registry.Registry.Register.
func (s *Server) RegisterHandler(pattern string, hasPattern bool, class, typ uint16, h registry.Handler, userData any) {
	s.registry.Register(pattern, hasPattern, class, typ, h, userData)
}

// AddPort adopts an already-bound, non-blocking-capable socket fd,
// determines whether it is UDP or TCP by querying its socket type, and
// begins watching it for read events. The returned Port's refcount starts
// at 1, representing the watcher itself.
func (s *Server) AddPort(fd int) (*Port, error) {
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return nil, fmt.Errorf("server: add port: getsockopt SO_TYPE: %w", err)
	}

	var p *Port
	switch typ {
	case unix.SOCK_DGRAM:
		p, err = newUDPPort(s, fd)
	case unix.SOCK_STREAM:
		p, err = newTCPPort(s, fd)
	default:
		return nil, fmt.Errorf("server: add port fd %d: %w", fd, ErrUnsupportedSocket)
	}
	if err != nil {
		return nil, err
	}
	s.ports[fd] = p
	s.logger.Debug("port added", "fd", fd, "kind", p.kind.String())
	return p, nil
}

// Ports returns the currently tracked ports, keyed by fd.
func (s *Server) Ports() map[int]*Port { return s.ports }
