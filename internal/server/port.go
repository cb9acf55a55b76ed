package server

import (
	"container/list"

	"golang.org/x/sys/unix"

	"github.com/raybellis/evldns/internal/reactor"
)

// Port is one bound socket the server owns: a listening/datagram fd with
// its own reactor watch, a refcount, and a closing flag. Its refcount
// starts at 1 for the watcher itself and gains one more for every live
// request object currently borrowing it (a UDP datagram from receipt until
// its response is sent or dropped, or an accepted TCP connection from
// accept until teardown); it is destroyed only once that reaches zero.
type Port struct {
	fd       int
	kind     Kind
	refcount int
	closing  bool
	watch    *reactor.Watch
	server   *Server

	// pending is the UDP backpressure FIFO of *udpRequest awaiting a
	// retried send. Always nil for TCP ports.
	pending *list.List
}

// FD returns the underlying file descriptor.
func (p *Port) FD() int { return p.fd }

// Kind reports whether this is a UDP or TCP port.
func (p *Port) Kind() Kind { return p.kind }

func (p *Port) acquire() { p.refcount++ }

func (p *Port) release() {
	p.refcount--
	if p.refcount == 0 {
		p.destroy()
	}
}

func (p *Port) destroy() {
	if p.watch != nil {
		_ = p.server.reactor.Remove(p.watch)
	}
	_ = unix.Close(p.fd)
	delete(p.server.ports, p.fd)

	// Closing drains and frees any queued responses without sending them.
	// By the refcount invariant this should already be empty by the time
	// we get here, but draining defensively keeps that a documented
	// contract rather than an assumption.
	if p.pending != nil {
		for e := p.pending.Front(); e != nil; e = e.Next() {
			e.Value.(*udpRequest).port = nil
		}
		p.pending.Init()
	}
	p.server.logger.Debug("port closed", "fd", p.fd, "kind", p.kind.String())
}

// Close marks the port as closing: UDP readability is masked (pending
// writes still drain), and TCP stops accepting new connections. The
// watcher's own refcount contribution is released immediately; the port
// is destroyed once any in-flight requests finish.
func (p *Port) Close() {
	if p.closing {
		return
	}
	p.closing = true
	switch p.kind {
	case KindUDP:
		p.applyUDPInterest()
	case KindTCP:
		_ = p.server.reactor.Modify(p.watch, 0)
	}
	p.release()
}
