// Package reactor implements the single-threaded, epoll-driven readiness
// multiplexer the rest of the server is built on: callers register a file
// descriptor with an interest set and an optional idle timeout, and the
// reactor invokes a callback whenever the descriptor becomes readable,
// writable, or its timeout elapses.
//
// There is exactly one goroutine running Run at any time; everything else
// in this module assumes callbacks never run concurrently with each other.
package reactor

import (
	"container/heap"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/raybellis/evldns/internal/helpers"
)

// Interest is a bitmask of the conditions a Watch cares about.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
	Timeout
)

// Callback is invoked once per matching event. in reports which of
// Readable/Writable/Timeout fired; a single call never reports more than
// one of Readable/Writable together with Timeout.
type Callback func(in Interest)

// pollTimeoutMs bounds how long epoll_wait blocks when no watch has a
// pending deadline, so Run can still notice a closed stop channel.
const pollTimeoutMs = 1000

// Watch is an opaque handle to a registered descriptor.
type Watch struct {
	fd       int
	interest Interest
	timeout  time.Duration
	deadline time.Time
	cb       Callback
	heapIdx  int // -1 when not scheduled in the timer heap
}

// Reactor owns the epoll instance and the set of registered watches.
type Reactor struct {
	epfd    int
	watches map[int]*Watch
	timers  timerHeap
}

// New creates an epoll instance. The returned Reactor must be driven by Run
// from a single goroutine.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	r := &Reactor{
		epfd:    epfd,
		watches: make(map[int]*Watch),
	}
	heap.Init(&r.timers)
	return r, nil
}

// Close releases the underlying epoll descriptor. The reactor must not be
// used afterwards.
func (r *Reactor) Close() error {
	return unix.Close(r.epfd)
}

// Register starts watching fd for the given interest. If timeout is
// positive, cb also fires with Timeout if fd is idle for that long; the
// deadline is reset by Rearm, not by read/write activity.
func (r *Reactor) Register(fd int, interest Interest, timeout time.Duration, cb Callback) (*Watch, error) {
	w := &Watch{fd: fd, interest: interest, timeout: timeout, cb: cb, heapIdx: -1}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: epollMask(interest),
		Fd:     int32(fd),
	}); err != nil {
		return nil, fmt.Errorf("reactor: epoll_ctl add fd %d: %w", fd, err)
	}
	r.watches[fd] = w
	if timeout > 0 {
		w.deadline = time.Now().Add(timeout)
		heap.Push(&r.timers, w)
	}
	return w, nil
}

// Modify changes the interest set for an already-registered watch.
func (r *Reactor) Modify(w *Watch, interest Interest) error {
	w.interest = interest
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, w.fd, &unix.EpollEvent{
		Events: epollMask(interest),
		Fd:     int32(w.fd),
	}); err != nil {
		return fmt.Errorf("reactor: epoll_ctl mod fd %d: %w", w.fd, err)
	}
	return nil
}

// Remove stops watching a descriptor. It does not close the descriptor.
func (r *Reactor) Remove(w *Watch) error {
	delete(r.watches, w.fd)
	if w.heapIdx >= 0 {
		heap.Remove(&r.timers, w.heapIdx)
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, w.fd, nil); err != nil {
		return fmt.Errorf("reactor: epoll_ctl del fd %d: %w", w.fd, err)
	}
	return nil
}

// Rearm resets a watch's idle deadline. A zero timeout disarms it.
func (r *Reactor) Rearm(w *Watch, timeout time.Duration) {
	w.timeout = timeout
	if w.heapIdx >= 0 {
		heap.Remove(&r.timers, w.heapIdx)
		w.heapIdx = -1
	}
	if timeout > 0 {
		w.deadline = time.Now().Add(timeout)
		heap.Push(&r.timers, w)
	}
}

// Run drives the event loop until stop is closed or an unrecoverable
// epoll_wait error occurs.
func (r *Reactor) Run(stop <-chan struct{}) error {
	events := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		timeoutMs := helpers.ClampInt(r.nextTimeoutMs(), -1, pollTimeoutMs)
		n, err := unix.EpollWait(r.epfd, events, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reactor: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			w, ok := r.watches[fd]
			if !ok {
				continue
			}
			var in Interest
			if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				in |= Readable
			}
			if events[i].Events&unix.EPOLLOUT != 0 {
				in |= Writable
			}
			if in != 0 {
				w.cb(in)
			}
		}

		r.fireExpiredTimers(time.Now())
	}
}

// nextTimeoutMs returns the epoll_wait timeout that will wake the loop in
// time for the earliest pending deadline, or pollTimeoutMs if none is
// scheduled.
func (r *Reactor) nextTimeoutMs() int {
	if r.timers.Len() == 0 {
		return pollTimeoutMs
	}
	d := time.Until(r.timers[0].deadline)
	if d <= 0 {
		return 0
	}
	return helpers.ClampInt(int(d/time.Millisecond)+1, 0, pollTimeoutMs)
}

func (r *Reactor) fireExpiredTimers(now time.Time) {
	for r.timers.Len() > 0 && !now.Before(r.timers[0].deadline) {
		w := heap.Pop(&r.timers).(*Watch)
		w.heapIdx = -1
		w.cb(Timeout)
	}
}

func epollMask(i Interest) uint32 {
	var m uint32
	if i&Readable != 0 {
		m |= unix.EPOLLIN
	}
	if i&Writable != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}
