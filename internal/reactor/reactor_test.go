package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRegisterFiresOnReadable(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	require.NoError(t, unix.SetNonblock(fds[0], true))

	fired := make(chan Interest, 1)
	_, err = r.Register(fds[0], Readable, 0, func(in Interest) {
		fired <- in
	})
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() { _ = r.Run(stop) }()
	defer close(stop)

	_, err = unix.Write(fds[1], []byte("hi"))
	require.NoError(t, err)

	select {
	case in := <-fired:
		assert.True(t, in&Readable != 0)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for readable event")
	}
}

func TestRegisterFiresTimeout(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	require.NoError(t, unix.SetNonblock(fds[0], true))

	fired := make(chan Interest, 1)
	_, err = r.Register(fds[0], Readable, 20*time.Millisecond, func(in Interest) {
		fired <- in
	})
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() { _ = r.Run(stop) }()
	defer close(stop)

	select {
	case in := <-fired:
		assert.True(t, in&Timeout != 0)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timeout event")
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	require.NoError(t, unix.SetNonblock(fds[0], true))

	w, err := r.Register(fds[0], Readable, 0, func(Interest) {
		t.Error("callback should not fire after Remove")
	})
	require.NoError(t, err)
	require.NoError(t, r.Remove(w))

	_, err = unix.Write(fds[1], []byte("hi"))
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() { _ = r.Run(stop) }()
	time.Sleep(50 * time.Millisecond)
	close(stop)
}

func TestNextTimeoutMsWithNoTimers(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, pollTimeoutMs, r.nextTimeoutMs())
}
