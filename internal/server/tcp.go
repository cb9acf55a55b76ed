package server

import (
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"

	"github.com/raybellis/evldns/internal/dispatch"
	"github.com/raybellis/evldns/internal/helpers"
	"github.com/raybellis/evldns/internal/reactor"
	"github.com/raybellis/evldns/internal/wire"
)

// tcpIdleTimeout is the idle deadline on an accepted connection, matching
// the 120-second timeout of the original C server. A var rather than a
// const so tests can shrink it instead of waiting out the real deadline.
var tcpIdleTimeout = 120 * time.Second

type tcpState int

const (
	stateReadLen tcpState = iota
	stateReadBody
	stateWriteLen
	stateWriteBody
)

// tcpRequest is both the per-connection state machine and the
// registry.Request for whichever message is currently in flight on it.
type tcpRequest struct {
	baseRequest
	port  *Port
	fd    int
	watch *reactor.Watch
	state tcpState

	lenBuf  [2]byte
	lenRead int
	bodyLen int
	body    []byte
	bodyRd  int

	prefixSent int
	bodySent   int

	held bool // true from accept until teardown: this connection's one constant port refcount contribution
}

func newTCPPort(srv *Server, fd int) (*Port, error) {
	p := &Port{fd: fd, kind: KindTCP, refcount: 1, server: srv}
	w, err := srv.reactor.Register(fd, reactor.Readable, 0, func(in reactor.Interest) {
		if in&reactor.Readable != 0 {
			p.tcpAcceptable()
		}
	})
	if err != nil {
		return nil, err
	}
	p.watch = w
	return p, nil
}

func (p *Port) tcpAcceptable() {
	for {
		connFD, sa, err := unix.Accept4(p.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			p.server.logger.Warn("tcp accept error", "fd", p.fd, "err", err)
			return
		}

		req := &tcpRequest{port: p, fd: connFD, state: stateReadLen}
		req.peer = sockaddrToTCPAddr(sa)
		w, err := p.server.reactor.Register(connFD, reactor.Readable, tcpIdleTimeout, func(in reactor.Interest) {
			req.onEvent(in)
		})
		if err != nil {
			_ = unix.Close(connFD)
			continue
		}
		req.watch = w
		p.acquire()
		req.held = true
	}
}

func (req *tcpRequest) onEvent(in reactor.Interest) {
	if in&reactor.Timeout != 0 {
		req.teardown()
		return
	}
	switch req.state {
	case stateReadLen, stateReadBody:
		if in&reactor.Readable != 0 {
			req.handleReadable()
		}
	case stateWriteLen, stateWriteBody:
		if in&reactor.Writable != 0 {
			req.handleWritable()
		}
	}
}

func (req *tcpRequest) handleReadable() {
	for {
		switch req.state {
		case stateReadLen:
			n, err := unix.Read(req.fd, req.lenBuf[req.lenRead:2])
			if err != nil {
				if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
					return
				}
				req.teardown()
				return
			}
			if n == 0 {
				req.teardown()
				return
			}
			req.lenRead += n
			if req.lenRead < 2 {
				continue
			}
			req.bodyLen = int(binary.BigEndian.Uint16(req.lenBuf[:]))
			if req.bodyLen == 0 {
				// Zero-length frame: no message to dispatch; keep the
				// connection open and wait for the next length prefix.
				req.resetReadState()
				continue
			}
			if req.bodyLen > wire.MaxTCPMessageSize {
				req.teardown()
				return
			}
			req.body = make([]byte, req.bodyLen)
			req.bodyRd = 0
			req.state = stateReadBody
		case stateReadBody:
			n, err := unix.Read(req.fd, req.body[req.bodyRd:req.bodyLen])
			if err != nil {
				if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
					return
				}
				req.teardown()
				return
			}
			if n == 0 {
				req.teardown()
				return
			}
			req.bodyRd += n
			if req.bodyRd < req.bodyLen {
				continue
			}
			req.dispatchAndQueueWrite()
			return
		}
	}
}

func (req *tcpRequest) dispatchAndQueueWrite() {
	result := dispatch.Run(req.port.server.registry, req, req.body)
	if result == dispatch.Dropped {
		req.teardown()
		return
	}

	req.prefixSent = 0
	req.bodySent = 0
	binary.BigEndian.PutUint16(req.lenBuf[:], helpers.ClampIntToUint16(len(req.wire)))
	req.state = stateWriteLen
	if err := req.port.server.reactor.Modify(req.watch, reactor.Writable); err != nil {
		req.teardown()
		return
	}
	req.handleWritable()
}

// handleWritable performs the gather-write of the 2-byte length prefix
// and body as a single writev(2) attempt, then falls back to plain writes
// for whatever remains. Accounting for bytes already written through the
// combined attempt is `max(0, n - remaining prefix bytes)`, correcting a
// documented off-by-two bug in the original C accounting
// (`wire_resplen - r - 2`).
func (req *tcpRequest) handleWritable() {
	if req.prefixSent < 2 {
		n, err := writev(req.fd, [][]byte{req.lenBuf[req.prefixSent:2], req.wire})
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			req.teardown()
			return
		}
		if n == 0 {
			return
		}
		remaining := 2 - req.prefixSent
		if n < remaining {
			req.prefixSent += n
			return
		}
		req.prefixSent = 2
		bodySent := n - remaining
		if bodySent < 0 {
			bodySent = 0
		}
		req.bodySent = bodySent
		if req.bodySent >= len(req.wire) {
			req.finishMessage()
			return
		}
		req.state = stateWriteBody
	}

	for req.bodySent < len(req.wire) {
		n, err := unix.Write(req.fd, req.wire[req.bodySent:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			req.teardown()
			return
		}
		if n == 0 {
			return
		}
		req.bodySent += n
	}
	req.finishMessage()
}

func (req *tcpRequest) finishMessage() {
	req.resetReadState()
	req.state = stateReadLen
	req.port.server.reactor.Rearm(req.watch, tcpIdleTimeout)
	_ = req.port.server.reactor.Modify(req.watch, reactor.Readable)
}

func (req *tcpRequest) resetReadState() {
	req.lenRead = 0
	req.bodyLen = 0
	req.body = nil
	req.bodyRd = 0
	req.prefixSent = 0
	req.bodySent = 0
	req.reset()
}

func (req *tcpRequest) teardown() {
	_ = req.port.server.reactor.Remove(req.watch)
	_ = unix.Shutdown(req.fd, unix.SHUT_RDWR)
	_ = unix.Close(req.fd)
	if req.held {
		req.port.release()
		req.held = false
	}
}
