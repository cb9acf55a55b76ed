package server

import (
	"container/list"

	"golang.org/x/sys/unix"

	"github.com/raybellis/evldns/internal/dispatch"
	"github.com/raybellis/evldns/internal/pool"
	"github.com/raybellis/evldns/internal/reactor"
	"github.com/raybellis/evldns/internal/wire"
)

// udpBufferPool reuses MaxUDPMessageSize receive buffers across datagrams,
// the same sync.Pool-backed pattern the teacher uses for its UDP receive
// path, adapted here to the single-threaded reactor rather than a
// per-worker-goroutine pool.
var udpBufferPool = pool.New(func() *[]byte {
	b := make([]byte, wire.MaxUDPMessageSize)
	return &b
})

// udpRequest is a registry.Request for one UDP datagram.
type udpRequest struct {
	baseRequest
	port *Port
	addr unix.Sockaddr
	elem *list.Element // non-nil while queued on port.pending
}

func newUDPPort(srv *Server, fd int) (*Port, error) {
	p := &Port{fd: fd, kind: KindUDP, refcount: 1, server: srv, pending: list.New()}
	w, err := srv.reactor.Register(fd, reactor.Readable, 0, func(in reactor.Interest) {
		if in&reactor.Readable != 0 {
			p.udpReadable()
		}
		if in&reactor.Writable != 0 {
			p.udpWritable()
		}
	})
	if err != nil {
		return nil, err
	}
	p.watch = w
	return p, nil
}

// udpReadable drains every datagram currently queued on the socket,
// dispatching each one synchronously and attempting to send its response
// immediately.
func (p *Port) udpReadable() {
	bufPtr := udpBufferPool.Get()
	defer udpBufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		n, from, err := unix.Recvfrom(p.fd, buf, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			p.server.logger.Warn("udp recvfrom error", "fd", p.fd, "err", err)
			continue
		}

		req := &udpRequest{port: p, addr: from}
		req.peer = sockaddrToUDPAddr(from)
		payload := append([]byte(nil), buf[:n]...)
		p.acquire()

		if dispatch.Run(p.server.registry, req, payload) == dispatch.Dropped {
			p.release()
			continue
		}
		p.trySend(req)
	}
}

// trySend attempts to send req's response immediately; on EAGAIN it is
// queued on the port's FIFO and writable interest is armed.
func (p *Port) trySend(req *udpRequest) {
	err := unix.Sendto(p.fd, req.wire, 0, req.addr)
	if err == nil {
		p.release()
		return
	}
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		p.enqueue(req)
		return
	}
	p.server.logger.Warn("udp sendto error", "fd", p.fd, "err", err)
	p.release()
}

func (p *Port) enqueue(req *udpRequest) {
	req.elem = p.pending.PushBack(req)
	p.applyUDPInterest()
}

// udpWritable drains the pending FIFO in order, stopping at the first
// send that would block.
func (p *Port) udpWritable() {
	for e := p.pending.Front(); e != nil; {
		req := e.Value.(*udpRequest)
		err := unix.Sendto(p.fd, req.wire, 0, req.addr)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			p.server.logger.Warn("udp sendto error", "fd", p.fd, "err", err)
		}
		next := e.Next()
		p.pending.Remove(e)
		p.release()
		e = next
	}
	p.applyUDPInterest()
}

// applyUDPInterest re-derives the watch's interest set: readable unless
// closing, writable while the pending FIFO is non-empty.
func (p *Port) applyUDPInterest() {
	var in reactor.Interest
	if !p.closing {
		in |= reactor.Readable
	}
	if p.pending.Len() > 0 {
		in |= reactor.Writable
	}
	_ = p.server.reactor.Modify(p.watch, in)
}
