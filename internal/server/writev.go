package server

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// writev gathers bufs into a single writev(2) call, the syscall behind
// the TCP driver's combined length-prefix-plus-body write attempt.
func writev(fd int, bufs [][]byte) (int, error) {
	iovs := make([]unix.Iovec, 0, len(bufs))
	for i := range bufs {
		if len(bufs[i]) == 0 {
			continue
		}
		var iov unix.Iovec
		iov.Base = &bufs[i][0]
		iov.SetLen(len(bufs[i]))
		iovs = append(iovs, iov)
	}
	if len(iovs) == 0 {
		return 0, nil
	}
	n, _, errno := unix.Syscall(unix.SYS_WRITEV, uintptr(fd), uintptr(unsafe.Pointer(&iovs[0])), uintptr(len(iovs)))
	if errno != 0 {
		return int(n), errno
	}
	return int(n), nil
}
