//go:build !windows

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSetReuse is the net.ListenConfig.Control hook that sets
// SO_REUSEADDR and SO_REUSEPORT before bind, so more than one process
// (or more than one Querier in this one) can share the mDNS port —
// standard practice for any mDNS stack, since the port is a well-known
// shared resource, not one this library owns exclusively.
func controlSetReuse(_ string, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = setSocketOptions(fd)
	})
	if err != nil {
		return err
	}
	return sockErr
}

func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
