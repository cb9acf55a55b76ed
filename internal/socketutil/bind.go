// Package socketutil is the socket-binding helper: an external
// collaborator by design (the server package consumes already-bound,
// non-blocking fds and never binds a socket itself), kept minimal and
// grounded directly on network.c's bind_to_sockaddr.
package socketutil

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// BindUDP creates, binds, and sets non-blocking a UDP socket for addr
// (host:port). An empty host (":port") binds the IPv6 wildcard address
// with IPV6_V6ONLY set, so it does not receive IPv4 traffic.
func BindUDP(addr string) (int, error) {
	return bindSockaddr(addr, unix.SOCK_DGRAM, 0)
}

// BindTCP creates, binds, listens, and sets non-blocking a TCP socket for
// addr, with the given listen backlog.
func BindTCP(addr string, backlog int) (int, error) {
	return bindSockaddr(addr, unix.SOCK_STREAM, backlog)
}

func bindSockaddr(addr string, sockType, backlog int) (int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return -1, fmt.Errorf("socketutil: %w", err)
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, portStr))
	if err != nil {
		return -1, fmt.Errorf("socketutil: resolve %q: %w", addr, err)
	}

	family := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		s := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(s.Addr[:], ip4)
		sa = s
	} else {
		family = unix.AF_INET6
		s := &unix.SockaddrInet6{Port: tcpAddr.Port}
		if tcpAddr.IP != nil {
			copy(s.Addr[:], tcpAddr.IP.To16())
		}
		sa = s
	}

	fd, err := unix.Socket(family, sockType, 0)
	if err != nil {
		return -1, fmt.Errorf("socketutil: socket: %w", err)
	}

	if family == unix.AF_INET6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			_ = unix.Close(fd)
			return -1, fmt.Errorf("socketutil: setsockopt IPV6_V6ONLY: %w", err)
		}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("socketutil: setsockopt SO_REUSEADDR: %w", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("socketutil: bind %s: %w", addr, err)
	}

	if sockType == unix.SOCK_STREAM {
		if err := unix.Listen(fd, backlog); err != nil {
			_ = unix.Close(fd)
			return -1, fmt.Errorf("socketutil: listen: %w", err)
		}
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("socketutil: set non-blocking: %w", err)
	}

	return fd, nil
}
