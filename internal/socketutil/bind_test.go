package socketutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBindUDPOnEphemeralPort(t *testing.T) {
	fd, err := BindUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer unix.Close(fd)

	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	require.NoError(t, err)
	assert.Equal(t, unix.SOCK_DGRAM, typ)
}

func TestBindTCPOnEphemeralPortListens(t *testing.T) {
	fd, err := BindTCP("127.0.0.1:0", 8)
	require.NoError(t, err)
	defer unix.Close(fd)

	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	require.NoError(t, err)
	assert.Equal(t, unix.SOCK_STREAM, typ)

	accept, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	require.NoError(t, err)
	assert.NotEqual(t, 0, accept)
}

func TestBindRejectsBadAddress(t *testing.T) {
	_, err := BindUDP("not-an-address")
	assert.Error(t, err)
}
